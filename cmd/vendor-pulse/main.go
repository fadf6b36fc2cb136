/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/HamedShams/vendor-pulse/internal/adapters/sentry"
    "github.com/HamedShams/vendor-pulse/internal/adapters/slack"
    "github.com/HamedShams/vendor-pulse/internal/config"
    httpapi "github.com/HamedShams/vendor-pulse/internal/http"
    "github.com/HamedShams/vendor-pulse/internal/jobs"
    "github.com/HamedShams/vendor-pulse/internal/logger"
    "github.com/HamedShams/vendor-pulse/internal/services"
    "github.com/rs/zerolog"
    "github.com/spf13/cobra"
)

func main() {
    root := &cobra.Command{
        Use:   "vendor-pulse",
        Short: "Weekly vendor error report from Sentry, delivered to Slack",
        RunE:  func(cmd *cobra.Command, args []string) error { return runOnce() },
    }
    root.AddCommand(
        &cobra.Command{
            Use:   "run",
            Short: "Generate and deliver one report, then exit",
            RunE:  func(cmd *cobra.Command, args []string) error { return runOnce() },
        },
        &cobra.Command{
            Use:   "serve",
            Short: "Run on a cron schedule with an admin/metrics HTTP surface",
            RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
        },
    )
    if err := root.Execute(); err != nil { os.Exit(1) }
}

func setup() (config.Config, zerolog.Logger, *services.Service) {
    cfg := config.Load()
    log := logger.New(cfg)
    if err := cfg.Validate(); err != nil {
        log.Fatal().Err(err).Msg("invalid configuration")
    }
    sc := sentry.NewClient(cfg, log)
    sl := slack.NewClient(cfg, log)
    return cfg, log, services.NewService(cfg, log, sc, sl)
}

func runOnce() error {
    _, log, svc := setup()
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()
    if err := svc.RunReport(ctx); err != nil {
        log.Error().Err(err).Msg("report run failed")
        return err
    }
    return nil
}

func serve() error {
    cfg, log, svc := setup()

    router := httpapi.NewRouter(cfg, log, svc)
    cron := jobs.NewCron(cfg, log, svc)
    cron.Start()
    defer cron.Stop()

    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()
    log.Info().Str("addr", cfg.HTTPAddr).Str("cron", cfg.ReportCron).Msg("serving")

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error"); return err }
    }

    time.Sleep(500 * time.Millisecond)
    return nil
}
