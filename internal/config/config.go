/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "fmt"
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "gopkg.in/yaml.v3"
)

// Pseudo-vendor tokens that must never become report rows. Matched case-insensitively
// after normalization; extendable via EXCLUDES_FILE.
var defaultExcludes = []string{
    "unknown", "typeerror", "securityerror", "error",
    "syntaxerror", "notallowederror", "referenceerror",
    "aborterror", "monorailrequesterror", "runtimeerror", "rpcerror",
}

type Config struct {
    AppEnv   string
    TZ       string
    HTTPAddr string

    SentryBaseURL string
    SentryOrg     string
    SentryProject string
    SentryToken   string
    BaseQuery     string

    ReportDays    int
    ReleaseLimit  int
    ReleasePrefix string
    ReportDir     string

    SlackBaseURL string
    SlackToken   string
    SlackChannel string

    ExcludesFile string
    Excludes     map[string]struct{}

    ReportCron  string
    HTTPTimeout time.Duration
}

func getenv(key, def string) string {
    v := os.Getenv(key)
    if v == "" { return def }
    return v
}

func atoi(key string, def int) int {
    v := os.Getenv(key)
    if v == "" { return def }
    i, err := strconv.Atoi(v)
    if err != nil { return def }
    return i
}

func dur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" { return def }
    d, err := time.ParseDuration(v)
    if err != nil { return def }
    return d
}

func Load() Config {
    _ = godotenv.Load()

    cfg := Config{
        AppEnv:   getenv("APP_ENV", "dev"),
        TZ:       getenv("APP_TZ", "UTC"),
        HTTPAddr: getenv("HTTP_ADDR", ":8080"),

        SentryBaseURL: strings.TrimRight(getenv("SENTRY_BASE_URL", "https://sentry.io"), "/"),
        SentryOrg:     getenv("SENTRY_ORG", ""),
        SentryProject: getenv("SENTRY_PROJECT", ""),
        SentryToken:   getenv("SENTRY_TOKEN", ""),
        BaseQuery:     strings.TrimSpace(getenv("SENTRY_QUERY", "")),

        ReportDays:    atoi("REPORT_DAYS", 7),
        ReleaseLimit:  atoi("RELEASE_LIMIT", 0),
        ReleasePrefix: strings.TrimSpace(getenv("RELEASE_PREFIX", "")),
        ReportDir:     getenv("REPORT_DIR", "report"),

        SlackBaseURL: strings.TrimRight(getenv("SLACK_BASE_URL", "https://slack.com"), "/"),
        SlackToken:   getenv("SLACK_TOKEN", ""),
        SlackChannel: getenv("SLACK_CHANNEL", ""),

        ExcludesFile: getenv("EXCLUDES_FILE", ""),

        ReportCron:  getenv("CRON_SPEC", "0 9 * * MON"),
        HTTPTimeout: dur("HTTP_TIMEOUT", 15*time.Second),
    }
    if cfg.ReportDays <= 0 { cfg.ReportDays = 7 }

    cfg.Excludes = loadExcludes(cfg.ExcludesFile)

    // set global timezone if available (affects cron schedules, not the UTC report window)
    if loc, err := time.LoadLocation(cfg.TZ); err == nil {
        time.Local = loc
    } else {
        log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
    }
    return cfg
}

// Validate reports fatal startup conditions; the caller aborts before any network I/O.
func (c Config) Validate() error {
    var missing []string
    if c.SentryOrg == "" { missing = append(missing, "SENTRY_ORG") }
    if c.SentryProject == "" { missing = append(missing, "SENTRY_PROJECT") }
    if c.SentryToken == "" { missing = append(missing, "SENTRY_TOKEN") }
    if len(missing) > 0 {
        return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
    }
    return nil
}

// loadExcludes returns the built-in exclusion set, extended with entries from an
// optional YAML overlay file of the form `exclude: [a, b, c]`.
func loadExcludes(path string) map[string]struct{} {
    out := make(map[string]struct{}, len(defaultExcludes))
    for _, e := range defaultExcludes { out[e] = struct{}{} }
    if path == "" { return out }
    data, err := os.ReadFile(path)
    if err != nil {
        log.Printf("warning: cannot read excludes file %s: %v", path, err)
        return out
    }
    var overlay struct {
        Exclude []string `yaml:"exclude"`
    }
    if err := yaml.Unmarshal(data, &overlay); err != nil {
        log.Printf("warning: cannot parse excludes file %s: %v", path, err)
        return out
    }
    for _, e := range overlay.Exclude {
        e = strings.ToLower(strings.TrimSpace(e))
        if e != "" { out[e] = struct{}{} }
    }
    return out
}
