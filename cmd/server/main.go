// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/guardian/internal/config"
	"github.com/tomtom215/guardian/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging.ToLogging())

	logging.Info().
		Str("version", version).
		Str("intake", cfg.Intake.Transport).
		Str("addr", cfg.Server.Addr()).
		Dur("tick_interval", cfg.Runner.TickInterval).
		Msg("Starting Guardian with supervisor tree")

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* lets any website drive the admin API and open WebSocket streams")
	}
	if cfg.Reports.Store.InMemory {
		logging.Warn().Msg("Report store is in memory (REPORT_STORE_IN_MEMORY=true); reports are lost on restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error releasing components")
		}
	}()

	if a.notifier != nil {
		logging.Info().Str("min_level", cfg.Reports.Webhook.MinLevel).Msg("Webhook notifier enabled")
	}
	for _, info := range a.registry.Info() {
		logging.Info().Str("detection", info.Name).Bool("enabled", info.Enabled).Msg("Detection registered")
	}

	tree, err := a.supervise(logging.NewSlogLogger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Unstopped service")
		}
	}

	logging.Info().Msg("Server stopped")
}
