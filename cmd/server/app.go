// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tomtom215/guardian/internal/api"
	"github.com/tomtom215/guardian/internal/config"
	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/intake"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/report"
	"github.com/tomtom215/guardian/internal/supervisor"
	"github.com/tomtom215/guardian/internal/supervisor/services"
	ws "github.com/tomtom215/guardian/internal/websocket"
	"github.com/tomtom215/guardian/internal/world"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds every long-lived component of the server.
type app struct {
	cfg *config.Config

	mirror     *world.Mirror
	registry   *detection.Registry
	engine     *engine.Engine
	runner     *engine.Runner
	store      *report.Store
	violations *report.ViolationTracker
	notifier   *report.Notifier
	hub        *ws.Hub
	pipeline   *report.Pipeline
	transport  *intake.Transport
	intake     *intake.Service
	server     *http.Server
}

// newApp builds the component graph. Close must be called on success.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.mirror = world.NewMirror(cfg.World)

	env := detection.Env{
		Oracle:       a.mirror,
		Coefficients: cfg.Coefficients,
		TickDuration: cfg.Runner.TickInterval,
	}
	registry, err := detection.NewRegistry(
		detection.NewFlightBlueprint(env),
		detection.NewSpeedBlueprint(env),
		detection.NewInvalidStateBlueprint(env),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register detections: %w", err)
	}
	if err := cfg.Detections.Apply(registry); err != nil {
		return nil, fmt.Errorf("failed to apply detection config: %w", err)
	}
	a.registry = registry

	store, err := report.OpenStore(cfg.Reports.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}
	a.store = store

	notifier, err := report.NewNotifier(cfg.Reports.Webhook)
	if err != nil {
		a.closeStore()
		return nil, fmt.Errorf("failed to create webhook notifier: %w", err)
	}
	a.notifier = notifier

	a.violations = report.NewViolationTracker(cfg.Reports.Violation)
	a.hub = ws.NewHub()

	sinks := []report.Sink{a.store, a.violations, a.hub}
	if a.notifier != nil {
		sinks = append(sinks, a.notifier)
	}
	a.pipeline = report.NewPipeline(cfg.Reports.Pipeline, sinks...)

	a.engine = engine.New(cfg.Engine, registry, a.mirror, nil, a.pipeline)
	a.runner = engine.NewRunner(a.engine, cfg.Runner)

	logger := intake.NewLogger()
	transport, err := intake.NewTransport(ctx, cfg.Intake, logger)
	if err != nil {
		a.closeStore()
		return nil, fmt.Errorf("failed to create intake transport: %w", err)
	}
	a.transport = transport
	a.intake = intake.NewService(cfg.Intake, transport, intake.NewHandler(a.mirror, a.runner, nil), logger)

	a.server = api.NewServer(cfg.Server, api.Dependencies{
		Engine:     a.runner,
		Detections: registry,
		Oracle:     a.mirror,
		Store:      a.store,
		Violations: a.violations,
		Hub:        a.hub,
		Publisher:  a.intake,
		Audit:      logging.NewAuditLogger(),
		Version:    version,
	})

	return a, nil
}

// supervise places every service in its layer of a new supervisor tree.
func (a *app) supervise(logger *slog.Logger) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logger, a.cfg.Supervisor)
	if err != nil {
		return nil, err
	}

	tree.AddCoreService(a.runner)
	tree.AddCoreService(a.pipeline)
	tree.AddCoreService(a.store)
	tree.AddCoreService(a.violations)

	tree.AddIntakeService(a.intake)

	tree.AddAPIService(services.NewWebSocketHubService(a.hub))
	tree.AddAPIService(services.NewStatsBroadcasterService(a.stats, a.hub, a.cfg.Server.StatsInterval))
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.server.Addr, a.cfg.Server.ShutdownTimeout))

	return tree, nil
}

// stats reads the engine counters through the runner.
func (a *app) stats(ctx context.Context) (interface{}, error) {
	var s engine.Stats
	err := a.runner.Query(ctx, func(e *engine.Engine) {
		s = e.Stats()
	})
	return s, err
}

func (a *app) closeStore() {
	if err := a.store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing report store")
	}
}

// Close releases the transport and the report store.
func (a *app) Close() error {
	var errs []error
	if a.transport != nil {
		if err := a.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("intake transport: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("report store: %w", err))
		}
	}
	return errors.Join(errs...)
}
