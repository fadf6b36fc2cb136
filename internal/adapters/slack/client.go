/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package slack

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"

    "github.com/HamedShams/vendor-pulse/internal/config"
    "github.com/rs/zerolog"
)

type Client struct {
    baseURL string
    token   string
    channel string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: cfg.SlackBaseURL,
        token:   cfg.SlackToken,
        channel: cfg.SlackChannel,
        http:    &http.Client{Timeout: cfg.HTTPTimeout},
        log:     log,
    }
}

// Configured reports whether delivery credentials are present. When they are not,
// the run skips delivery instead of failing.
func (c *Client) Configured() bool { return c.token != "" && c.channel != "" }

// UploadFile posts a finished report file to the configured channel via the external
// upload handshake: request an upload slot, transfer the bytes, finalize and publish.
func (c *Client) UploadFile(ctx context.Context, path, comment string) error {
    if !c.Configured() { return fmt.Errorf("slack: missing token or channel") }

    data, err := os.ReadFile(path)
    if err != nil { return fmt.Errorf("slack: read %s: %w", path, err) }
    name := filepath.Base(path)

    // step 1: request an upload URL for the file
    var slot struct {
        OK        bool   `json:"ok"`
        Error     string `json:"error"`
        UploadURL string `json:"upload_url"`
        FileID    string `json:"file_id"`
    }
    if err := c.postJSON(ctx, "/api/files.getUploadURLExternal", map[string]any{
        "filename": name,
        "length":   len(data),
    }, &slot); err != nil {
        return err
    }
    if !slot.OK { return fmt.Errorf("slack getUploadURLExternal failed: %s", slot.Error) }

    // step 2: transfer the bytes to the returned URL
    req, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, bytes.NewReader(data))
    if err != nil { return err }
    req.Header.Set("Content-Type", "text/csv")
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
        b, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("slack upload status=%d body=%s", resp.StatusCode, string(b))
    }

    // step 3: finalize and publish with the initial comment
    var done struct {
        OK    bool   `json:"ok"`
        Error string `json:"error"`
    }
    if err := c.postJSON(ctx, "/api/files.completeUploadExternal", map[string]any{
        "files":           []map[string]any{{"id": slot.FileID, "title": name}},
        "channels":        []string{c.channel},
        "initial_comment": comment,
    }, &done); err != nil {
        return err
    }
    if !done.OK { return fmt.Errorf("slack completeUploadExternal failed: %s", done.Error) }

    c.log.Info().Str("file", name).Str("channel", c.channel).Msg("report uploaded to slack")
    return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
    b, err := json.Marshal(body)
    if err != nil { return err }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("Authorization", "Bearer "+c.token)
    req.Header.Set("Content-Type", "application/json;charset=utf-8")
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        rb, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("slack %s status=%d body=%s", path, resp.StatusCode, string(rb))
    }
    return json.NewDecoder(resp.Body).Decode(out)
}
