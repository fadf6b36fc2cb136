/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package sentry

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"

    "github.com/HamedShams/vendor-pulse/internal/config"
    "github.com/HamedShams/vendor-pulse/internal/domain"
    "github.com/rs/zerolog"
)

type Client struct {
    baseURL string
    org     string
    project string
    token   string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: cfg.SentryBaseURL,
        org:     cfg.SentryOrg,
        project: cfg.SentryProject,
        token:   cfg.SentryToken,
        http:    &http.Client{Timeout: cfg.HTTPTimeout},
        log:     log,
    }
}

func (c *Client) apiURL(path string, q url.Values) string {
    u := c.baseURL + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// get performs one authorized round-trip. No retries: a failed call is logged by the
// caller and the run degrades to whatever was already accumulated.
func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
    if err != nil { return nil, err }
    req.Header.Set("Authorization", "Bearer "+c.token)
    return c.http.Do(req)
}

func excerpt(b []byte) string {
    s := strings.TrimSpace(string(b))
    if len(s) > 256 { s = s[:256] }
    return s
}

// Releases retrieves the full release catalog for the project. The catalog is usually
// one page, but next-cursors are followed so a larger one is still exhausted.
func (c *Client) Releases(ctx context.Context) ([]domain.Release, error) {
    var out []domain.Release
    cursor := ""
    for {
        q := url.Values{}
        q.Set("per_page", "100")
        if cursor != "" { q.Set("cursor", cursor) }
        u := c.apiURL(fmt.Sprintf("/api/0/projects/%s/%s/releases/", url.PathEscape(c.org), url.PathEscape(c.project)), q)
        resp, err := c.get(ctx, u)
        if err != nil { return out, err }
        if resp.StatusCode != http.StatusOK {
            b, _ := io.ReadAll(resp.Body)
            resp.Body.Close()
            return out, fmt.Errorf("sentry releases status=%d body=%s", resp.StatusCode, excerpt(b))
        }
        var page []domain.Release
        err = json.NewDecoder(resp.Body).Decode(&page)
        next := nextCursor(resp.Header.Get("Link"))
        resp.Body.Close()
        if err != nil { return out, err }
        out = append(out, page...)
        if len(page) == 0 || next == "" { break }
        cursor = next
    }
    return out, nil
}

// Issues returns a lazy iterator over every issue matching query, hiding cursor
// pagination from the consumer. The iterator is finite and not restartable.
func (c *Client) Issues(ctx context.Context, query, statsPeriod string) *IssueIter {
    return &IssueIter{c: c, ctx: ctx, query: query, period: statsPeriod}
}

type IssueIter struct {
    c      *Client
    ctx    context.Context
    query  string
    period string
    cursor string
    page   []domain.Issue
    idx    int
    pages  int
    done   bool
    err    error
}

// Next yields the next issue, fetching pages on demand. It returns false once the
// upstream stops handing out next-cursors, returns an empty page, or fails; after a
// failure the issues already yielded stand as a partial result.
func (it *IssueIter) Next() (domain.Issue, bool) {
    for it.idx >= len(it.page) {
        if it.done { return domain.Issue{}, false }
        it.fetchPage()
        if it.err != nil { return domain.Issue{}, false }
        if len(it.page) == 0 {
            it.done = true
            return domain.Issue{}, false
        }
    }
    is := it.page[it.idx]
    it.idx++
    return is, true
}

// Err reports the upstream failure that truncated the sequence, if any.
func (it *IssueIter) Err() error { return it.err }

// Pages reports how many pages were fetched so far.
func (it *IssueIter) Pages() int { return it.pages }

func (it *IssueIter) fetchPage() {
    q := url.Values{}
    q.Set("query", it.query)
    q.Set("statsPeriod", it.period)
    if it.cursor != "" { q.Set("cursor", it.cursor) }
    u := it.c.apiURL(fmt.Sprintf("/api/0/projects/%s/%s/issues/", url.PathEscape(it.c.org), url.PathEscape(it.c.project)), q)
    resp, err := it.c.get(it.ctx, u)
    if err != nil {
        it.c.log.Error().Err(err).Msg("sentry issues fetch failed")
        it.err, it.done = err, true
        return
    }
    if resp.StatusCode != http.StatusOK {
        b, _ := io.ReadAll(resp.Body)
        resp.Body.Close()
        err := fmt.Errorf("sentry issues status=%d body=%s", resp.StatusCode, excerpt(b))
        it.c.log.Error().Int("status", resp.StatusCode).Str("body", excerpt(b)).Msg("sentry issues fetch failed")
        it.err, it.done = err, true
        return
    }
    var page []domain.Issue
    err = json.NewDecoder(resp.Body).Decode(&page)
    next := nextCursor(resp.Header.Get("Link"))
    resp.Body.Close()
    if err != nil {
        it.c.log.Error().Err(err).Msg("sentry issues decode failed")
        it.err, it.done = err, true
        return
    }
    it.pages++
    it.page, it.idx = page, 0
    if next == "" {
        it.done = true
    } else {
        it.cursor = next
    }
}

// nextCursor extracts the opaque cursor from the rel="next" part of a Link header,
// e.g. `<url>; rel="next"; results="true"; cursor="0:100:0"`. An absent link, or one
// flagged results="false", yields the empty cursor.
func nextCursor(link string) string {
    for _, part := range strings.Split(link, ",") {
        if !strings.Contains(part, `rel="next"`) { continue }
        if strings.Contains(part, `results="false"`) { return "" }
        marker := `cursor="`
        i := strings.Index(part, marker)
        if i < 0 { return "" }
        rest := part[i+len(marker):]
        j := strings.Index(rest, `"`)
        if j < 0 { return "" }
        return rest[:j]
    }
    return ""
}
