/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/HamedShams/vendor-pulse/internal/domain"
)

// versionKey is a totally-ordered sort key over loosely-structured version strings.
// Malformed input degrades to a low-but-valid key; nothing here can fail.
type versionKey struct {
    nums  [4]int
    final int // 0 when a pre-release suffix is present
    pre   int // first integer embedded in the pre-release suffix
}

func versionSortKey(v string) versionKey {
    // build metadata never participates in ordering
    if i := strings.Index(v, "+"); i >= 0 { v = v[:i] }

    var k versionKey
    prefix := v
    if i := strings.Index(v, "-"); i >= 0 {
        prefix = v[:i]
        k.pre = firstInt(v[i+1:])
    } else {
        k.final = 1
    }
    for i, part := range strings.Split(prefix, ".") {
        if i >= 4 { break }
        n, err := strconv.Atoi(part)
        if err != nil || n < 0 { n = 0 }
        k.nums[i] = n
    }
    return k
}

func firstInt(s string) int {
    start := -1
    for i, r := range s {
        if r >= '0' && r <= '9' {
            if start < 0 { start = i }
            continue
        }
        if start >= 0 {
            n, _ := strconv.Atoi(s[start:i])
            return n
        }
    }
    if start >= 0 {
        n, _ := strconv.Atoi(s[start:])
        return n
    }
    return 0
}

// versionLess orders keys ascending; sort descending for latest-first.
func versionLess(a, b versionKey) bool {
    for i := 0; i < 4; i++ {
        if a.nums[i] != b.nums[i] { return a.nums[i] < b.nums[i] }
    }
    if a.final != b.final { return a.final < b.final }
    return a.pre < b.pre
}

type candidateRelease struct {
    version string
    created time.Time
}

// selectVersions filters the catalog down to releases that exist inside the report
// window (non-empty version, parseable creation time not after windowEnd, optional
// prefix match), dedups by version, and returns them newest-first.
func selectVersions(catalog []domain.Release, windowEnd time.Time, prefix string) []candidateRelease {
    seen := map[string]struct{}{}
    var eligible []candidateRelease
    for _, r := range catalog {
        v := strings.TrimSpace(r.Version)
        if v == "" { continue }
        created, err := time.Parse(time.RFC3339, r.DateCreated)
        if err != nil { continue }
        if created.After(windowEnd) { continue }
        if prefix != "" && !strings.HasPrefix(v, prefix) { continue }
        if _, dup := seen[v]; dup { continue }
        seen[v] = struct{}{}
        eligible = append(eligible, candidateRelease{version: v, created: created})
    }
    sort.SliceStable(eligible, func(i, j int) bool {
        return versionLess(versionSortKey(eligible[j].version), versionSortKey(eligible[i].version))
    })
    return eligible
}

// selectReleases fetches the release catalog and picks the versions the issue query
// should be scoped to. A catalog fetch failure is non-fatal: the run proceeds
// without release filtering.
func (s *Service) selectReleases(ctx context.Context, window domain.DateWindow) []string {
    catalog, err := s.sentry.Releases(ctx)
    if err != nil {
        s.log.Error().Err(err).Msg("release catalog fetch failed; proceeding without release filter")
        return nil
    }
    eligible := selectVersions(catalog, window.End, s.cfg.ReleasePrefix)

    // diagnostic preview of what the selector saw
    preview := eligible
    if len(preview) > 10 { preview = preview[:10] }
    for i, r := range preview {
        s.log.Info().Int("n", i+1).Str("version", r.version).Time("created", r.created).Msg("release candidate")
    }

    if s.cfg.ReleaseLimit > 0 && len(eligible) > s.cfg.ReleaseLimit {
        eligible = eligible[:s.cfg.ReleaseLimit]
    }
    out := make([]string, 0, len(eligible))
    for _, r := range eligible { out = append(out, r.version) }
    return out
}
