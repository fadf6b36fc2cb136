/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "sort"
    "strconv"
    "strings"
    "unicode"
    "unicode/utf8"

    "github.com/HamedShams/vendor-pulse/internal/domain"
)

// classifyVendor maps an issue to its normalized vendor key, or "" when the issue
// carries no usable vendor type or hits the exclusion set.
func classifyVendor(is domain.Issue, excludes map[string]struct{}) string {
    v := strings.ToLower(strings.TrimSpace(is.Metadata.Type))
    if v == "" { return "" }
    if _, skip := excludes[v]; skip { return "" }
    return v
}

// eventCount prefers the per-period stats series the response carries (only one key
// is expected per issue) and falls back to the raw total; never both.
func eventCount(is domain.Issue) int {
    for _, series := range is.Stats {
        if len(series) == 0 { continue }
        total := 0
        for _, point := range series {
            if len(point) >= 2 { total += int(point[1]) }
        }
        return total
    }
    n, err := strconv.Atoi(strings.TrimSpace(is.Count))
    if err != nil || n < 0 { return 0 }
    return n
}

func displayMessage(is domain.Issue) string {
    if is.Title != "" { return is.Title }
    return is.Metadata.Value
}

// vendorTotals folds classified issues into per-vendor records, remembering the
// order vendors were first seen so ranking ties stay stable.
type vendorTotals struct {
    records  map[string]*domain.VendorRecord
    order    []string
    excludes map[string]struct{}
}

func newVendorTotals(excludes map[string]struct{}) *vendorTotals {
    return &vendorTotals{records: map[string]*domain.VendorRecord{}, excludes: excludes}
}

// Add classifies one issue and accumulates it; excluded issues are dropped whole.
func (vt *vendorTotals) Add(is domain.Issue) bool {
    vendor := classifyVendor(is, vt.excludes)
    if vendor == "" { return false }
    rec, ok := vt.records[vendor]
    if !ok {
        rec = &domain.VendorRecord{Messages: map[string]struct{}{}}
        vt.records[vendor] = rec
        vt.order = append(vt.order, vendor)
    }
    rec.Events += eventCount(is)
    rec.Issues++
    if msg := displayMessage(is); msg != "" {
        rec.Messages[msg] = struct{}{}
    }
    return true
}

func (vt *vendorTotals) Vendors() int { return len(vt.order) }

// Rank orders vendors by event volume descending (discovery order breaks ties),
// assigns consecutive 1-based ranks, and renders the display rows.
func (vt *vendorTotals) Rank() []domain.ReportRow {
    ordered := make([]string, len(vt.order))
    copy(ordered, vt.order)
    sort.SliceStable(ordered, func(i, j int) bool {
        return vt.records[ordered[i]].Events > vt.records[ordered[j]].Events
    })

    rows := make([]domain.ReportRow, 0, len(ordered))
    for i, vendor := range ordered {
        rec := vt.records[vendor]
        msgs := make([]string, 0, len(rec.Messages))
        for m := range rec.Messages { msgs = append(msgs, m) }
        sort.Strings(msgs)
        rows = append(rows, domain.ReportRow{
            Rank:     i + 1,
            Vendor:   capitalize(vendor),
            Events:   rec.Events,
            Issues:   rec.Issues,
            Messages: strings.Join(msgs, "; "),
        })
    }
    return rows
}

// capitalize upper-cases the first character only; aggregation keys stay lower-cased.
func capitalize(s string) string {
    r, size := utf8.DecodeRuneInString(s)
    if r == utf8.RuneError { return s }
    return string(unicode.ToUpper(r)) + s[size:]
}
