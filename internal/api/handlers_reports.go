// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/report"
	"github.com/tomtom215/guardian/internal/validation"
)

// Reports lists stored reports, newest first. Query parameters: entity,
// detection, level (minimum) and limit.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Store == nil {
		rw.ServiceUnavailable("report store not available")
		return
	}

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	q := r.URL.Query()
	req := ReportsQuery{
		Entity:    q.Get("entity"),
		Detection: q.Get("detection"),
		MinLevel:  q.Get("level"),
		Limit:     limit,
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	reports, err := h.deps.Store.List(r.Context(), report.Filter{
		Entity:    req.Entity,
		Detection: req.Detection,
		MinLevel:  detection.Level(req.MinLevel),
		Limit:     req.Limit,
	})
	if err != nil {
		if errors.Is(err, report.ErrStoreClosed) {
			writeError(rw, err)
			return
		}
		rw.StorageError(err)
		return
	}
	if reports == nil {
		reports = []*detection.Report{}
	}
	rw.List(reports, len(reports))
}

// Report returns one stored report by ID.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Store == nil {
		rw.ServiceUnavailable("report store not available")
		return
	}

	rep, err := h.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) || errors.Is(err, report.ErrStoreClosed) {
			writeError(rw, err)
			return
		}
		rw.StorageError(err)
		return
	}
	rw.Success(rep)
}

// Violations lists violation levels, highest first.
func (h *Handler) Violations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Violations == nil {
		rw.ServiceUnavailable("violation tracking not available")
		return
	}
	all := h.deps.Violations.All()
	rw.List(all, len(all))
}

// Violation returns the violation level of one entity.
func (h *Handler) Violation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Violations == nil {
		rw.ServiceUnavailable("violation tracking not available")
		return
	}
	id, err := entityParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	v, ok := h.deps.Violations.Get(id)
	if !ok {
		rw.NotFound("no violations recorded")
		return
	}
	rw.Success(v)
}
