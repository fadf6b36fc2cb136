/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import "time"

// Issue is the read-only slice of a Sentry issue this pipeline consumes.
// Count arrives as a decimal string on the wire; Stats carries at most one
// per-period series keyed by the stats period label of the request.
type Issue struct {
    ID       string               `json:"id"`
    Title    string               `json:"title"`
    Count    string               `json:"count"`
    Metadata Metadata             `json:"metadata"`
    Stats    map[string][][]float64 `json:"stats,omitempty"`
}

type Metadata struct {
    Type  string `json:"type"`
    Value string `json:"value"`
}

type Release struct {
    Version     string `json:"version"`
    DateCreated string `json:"dateCreated"`
}

// DateWindow is a [Start, End) pair in UTC, day-aligned.
type DateWindow struct {
    Start time.Time
    End   time.Time
}

// StartDay and EndDay render the window bounds as dates, with End shown as the
// last day the window actually includes.
func (w DateWindow) StartDay() string { return w.Start.Format("2006-01-02") }
func (w DateWindow) EndDay() string   { return w.End.Add(-time.Second).Format("2006-01-02") }

func (w DateWindow) Days() int { return int(w.End.Sub(w.Start).Hours() / 24) }

// VendorRecord accumulates everything attributed to one normalized vendor.
// Mutated only by the aggregation fold; Messages has set semantics.
type VendorRecord struct {
    Events   int
    Issues   int
    Messages map[string]struct{}
}

// ReportRow is one rendered line of the final report. Rank is 1-based and
// consecutive; Vendor is the display form (first character capitalized).
type ReportRow struct {
    Rank     int
    Vendor   string
    Events   int
    Issues   int
    Messages string
}
