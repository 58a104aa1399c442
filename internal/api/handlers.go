// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/intake"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/report"
	ws "github.com/tomtom215/guardian/internal/websocket"
	"github.com/tomtom215/guardian/internal/world"
)

// EngineQuerier runs fn on the engine goroutine. engine.Runner implements it.
type EngineQuerier interface {
	Query(ctx context.Context, fn func(*engine.Engine)) error
}

// EventPublisher publishes host events to intake. intake.Service implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *intake.HostEvent) error
}

// ReportStore reads persisted reports. report.Store implements it.
type ReportStore interface {
	Get(ctx context.Context, id string) (*detection.Report, error)
	List(ctx context.Context, f report.Filter) ([]*detection.Report, error)
	Count(ctx context.Context) (int, error)
}

// Dependencies are the components the API reads and drives. Only Engine and
// Detections are required; endpoints backed by a missing component answer
// 503.
type Dependencies struct {
	Engine     EngineQuerier
	Detections *detection.Registry
	Oracle     world.Oracle
	Store      ReportStore
	Violations *report.ViolationTracker
	Hub        *ws.Hub
	Publisher  EventPublisher
	Audit      *logging.AuditLogger
	Version    string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_health.go: health and stats
//   - handlers_entities.go: tracked entities, live sequences, avoid rules
//   - handlers_reports.go: stored reports and violation levels
//   - handlers_detection.go: detection listing and runtime configuration
//   - handlers_events.go: host event ingestion
//   - handlers_websocket.go: live report stream
type Handler struct {
	deps      Dependencies
	config    Config
	audit     *logging.AuditLogger
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies, cfg Config) *Handler {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	audit := deps.Audit
	if audit == nil {
		audit = logging.NewAuditLogger()
	}
	return &Handler{
		deps:      deps,
		config:    cfg,
		audit:     audit,
		startTime: time.Now(),
	}
}

// query runs fn on the engine goroutine within the configured timeout.
func (h *Handler) query(ctx context.Context, fn func(*engine.Engine)) error {
	if h.deps.Engine == nil {
		return ErrEngineUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.QueryTimeout)
	defer cancel()
	return h.deps.Engine.Query(ctx, fn)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Browsers
// always send Origin, so a missing one is rejected. With no configured
// origins only same-host connections are accepted.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	if len(h.config.CORSOrigins) == 0 {
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
