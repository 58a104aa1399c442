// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/guardian/internal/engine"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ComponentHealth is the health of one component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Uptime     float64                    `json:"uptime_seconds"`
	Tick       int64                      `json:"tick"`
	Components map[string]ComponentHealth `json:"components"`
}

// intakeRunner is implemented by intake.Service.
type intakeRunner interface {
	Running() <-chan struct{}
}

// Health reports liveness and component status. The engine is required;
// intake and the report store only degrade the status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     StatusHealthy,
		Version:    h.deps.Version,
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: make(map[string]ComponentHealth),
	}

	var stats engine.Stats
	if err := h.query(r.Context(), func(e *engine.Engine) { stats = e.Stats() }); err != nil {
		resp.Status = StatusUnhealthy
		resp.Components["engine"] = ComponentHealth{Message: err.Error()}
	} else {
		resp.Tick = stats.Tick
		resp.Components["engine"] = ComponentHealth{Healthy: true}
	}

	if ir, ok := h.deps.Publisher.(intakeRunner); ok {
		select {
		case <-ir.Running():
			resp.Components["intake"] = ComponentHealth{Healthy: true}
		default:
			resp.Components["intake"] = ComponentHealth{Message: "router not running"}
			resp.degrade()
		}
	}

	if h.deps.Store != nil {
		if _, err := h.deps.Store.Count(r.Context()); err != nil {
			resp.Components["store"] = ComponentHealth{Message: err.Error()}
			resp.degrade()
		} else {
			resp.Components["store"] = ComponentHealth{Healthy: true}
		}
	}

	rw := NewResponseWriter(w, r)
	if resp.Status == StatusUnhealthy {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "engine not responding", resp)
		return
	}
	rw.Success(resp)
}

func (resp *HealthResponse) degrade() {
	if resp.Status == StatusHealthy {
		resp.Status = StatusDegraded
	}
}

// Stats returns engine counters and downstream state.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var view StatsView
	if err := h.query(r.Context(), func(e *engine.Engine) { view.Engine = e.Stats() }); err != nil {
		writeError(rw, err)
		return
	}
	if h.deps.Hub != nil {
		view.WebSocketClients = h.deps.Hub.GetClientCount()
	}
	if h.deps.Store != nil {
		if n, err := h.deps.Store.Count(r.Context()); err == nil {
			view.StoredReports = &n
		}
	}
	if h.deps.Violations != nil {
		for _, v := range h.deps.Violations.All() {
			if v.Flagged {
				view.FlaggedEntities++
			}
		}
	}
	rw.Success(view)
}
