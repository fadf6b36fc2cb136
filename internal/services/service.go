/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strings"
    "sync"
    "time"

    "github.com/HamedShams/vendor-pulse/internal/adapters/sentry"
    "github.com/HamedShams/vendor-pulse/internal/adapters/slack"
    "github.com/HamedShams/vendor-pulse/internal/config"
    "github.com/HamedShams/vendor-pulse/internal/domain"
    "github.com/HamedShams/vendor-pulse/internal/metrics"
    "github.com/rs/zerolog"
)

type Service struct {
    cfg    config.Config
    log    zerolog.Logger
    sentry *sentry.Client
    slack  *slack.Client

    mu      sync.Mutex
    lastRun *RunSummary
}

// RunSummary is the in-memory record of the most recent report run, served by the
// admin surface. It does not survive process restarts.
type RunSummary struct {
    StartedAt   time.Time `json:"started_at"`
    FinishedAt  time.Time `json:"finished_at"`
    WindowStart string    `json:"window_start"`
    WindowEnd   string    `json:"window_end"`
    Releases    int       `json:"releases"`
    Issues      int       `json:"issues"`
    Vendors     int       `json:"vendors"`
    ReportPath  string    `json:"report_path"`
    Delivered   bool      `json:"delivered"`
    Error       string    `json:"error,omitempty"`
}

func NewService(cfg config.Config, logger zerolog.Logger, sc *sentry.Client, sl *slack.Client) *Service {
    return &Service{cfg: cfg, log: logger, sentry: sc, slack: sl}
}

// reportWindow is the [start, end) UTC day-aligned window ending at the start of
// the current UTC day.
func reportWindow(now time.Time, days int) domain.DateWindow {
    end := now.UTC().Truncate(24 * time.Hour)
    return domain.DateWindow{Start: end.AddDate(0, 0, -days), End: end}
}

// statsPeriod picks the coarse series label the upstream accepts for a window of
// this width.
func statsPeriod(window domain.DateWindow) string {
    if window.Days() <= 1 { return "24h" }
    return "14d"
}

// buildQuery appends the release clause and the inclusive lastSeen bounds to the
// base filter. The window's exclusive end becomes an inclusive bound on its last
// full day.
func buildQuery(base string, releases []string, window domain.DateWindow) string {
    parts := []string{}
    if base != "" { parts = append(parts, base) }
    switch len(releases) {
    case 0:
    case 1:
        parts = append(parts, "release:"+releases[0])
    default:
        parts = append(parts, "release:["+strings.Join(releases, ",")+"]")
    }
    parts = append(parts,
        "lastSeen:>="+window.StartDay(),
        "lastSeen:<="+window.EndDay(),
    )
    return strings.Join(parts, " ")
}

// RunReport executes one full pass: resolve the window, pick releases, fetch and
// aggregate issues, rank, write the CSV, and hand it to delivery. Upstream
// failures degrade the result; only rendering failures make the run itself fail.
func (s *Service) RunReport(ctx context.Context) error {
    started := time.Now()
    window := reportWindow(started, s.cfg.ReportDays)
    period := statsPeriod(window)
    s.log.Info().Str("start", window.StartDay()).Str("end", window.EndDay()).Str("period", period).Msg("report run: start")

    var releases []string
    if s.cfg.ReleaseLimit > 0 {
        releases = s.selectReleases(ctx, window)
    }

    query := buildQuery(s.cfg.BaseQuery, releases, window)
    s.log.Info().Str("query", query).Msg("fetching issues")

    totals := newVendorTotals(s.cfg.Excludes)
    issues := 0
    it := s.sentry.Issues(ctx, query, period)
    for {
        is, ok := it.Next()
        if !ok { break }
        issues++
        totals.Add(is)
    }
    metrics.IssuesFetched.Add(float64(issues))
    metrics.PagesFetched.Add(float64(it.Pages()))
    if err := it.Err(); err != nil {
        // partial results are acceptable; the report covers what was fetched
        s.log.Warn().Err(err).Int("issues", issues).Msg("issue fetch truncated; reporting partial window")
    }

    rows := totals.Rank()
    path := reportPath(s.cfg.ReportDir, window)
    if err := writeReport(path, rows, period); err != nil {
        metrics.RunsTotal.WithLabelValues("error").Inc()
        s.recordRun(started, window, len(releases), issues, totals.Vendors(), path, false, err)
        return fmt.Errorf("write report: %w", err)
    }
    s.log.Info().Str("path", path).Int("vendors", len(rows)).Int("issues", issues).Msg("report written")

    top := rows
    if len(top) > 10 { top = top[:10] }
    for _, row := range top {
        fmt.Printf("%2d. %-24s events=%-8d issues=%d\n", row.Rank, row.Vendor, row.Events, row.Issues)
    }

    delivered := s.deliver(ctx, path, window)
    metrics.RunsTotal.WithLabelValues("ok").Inc()
    s.recordRun(started, window, len(releases), issues, totals.Vendors(), path, delivered, it.Err())
    return nil
}

// deliver hands the artifact to the messaging channel. Failures are logged and
// non-fatal: the report itself is already complete on disk.
func (s *Service) deliver(ctx context.Context, path string, window domain.DateWindow) bool {
    if !s.slack.Configured() {
        s.log.Info().Msg("slack not configured, skipping upload")
        return false
    }
    comment := fmt.Sprintf("Sentry vendors report %s–%s", window.StartDay(), window.EndDay())
    if err := s.slack.UploadFile(ctx, path, comment); err != nil {
        metrics.UploadFailures.Inc()
        s.log.Error().Err(err).Str("path", path).Msg("slack upload failed")
        return false
    }
    return true
}

func (s *Service) recordRun(started time.Time, window domain.DateWindow, releases, issues, vendors int, path string, delivered bool, err error) {
    sum := &RunSummary{
        StartedAt:   started,
        FinishedAt:  time.Now(),
        WindowStart: window.StartDay(),
        WindowEnd:   window.EndDay(),
        Releases:    releases,
        Issues:      issues,
        Vendors:     vendors,
        ReportPath:  path,
        Delivered:   delivered,
    }
    if err != nil { sum.Error = err.Error() }
    s.mu.Lock()
    s.lastRun = sum
    s.mu.Unlock()
}

func (s *Service) GetLastRun(ctx context.Context) (any, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.lastRun == nil {
        return map[string]any{"status": "no runs yet"}, nil
    }
    return s.lastRun, nil
}
