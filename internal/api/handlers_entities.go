// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/sequence"
)

// Entities lists tracked entities with their live detections and avoid
// rules, ordered by ID.
func (h *Handler) Entities(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var views []EntityView
	err := h.query(r.Context(), func(e *engine.Engine) {
		for _, id := range e.Tracked() {
			view := EntityView{ID: id, Live: []string{}}
			for _, o := range e.Live(id) {
				view.Live = append(view.Live, o.Detection)
			}
			for _, kind := range e.AvoidedKinds(id) {
				view.Avoiding = append(view.Avoiding, kind.String())
			}
			views = append(views, view)
		}
	})
	if err != nil {
		writeError(rw, err)
		return
	}

	for i := range views {
		h.enrichEntity(&views[i])
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].ID.String() < views[j].ID.String()
	})
	if views == nil {
		views = []EntityView{}
	}
	rw.List(views, len(views))
}

// enrichEntity adds mirror state and violation level outside the engine
// goroutine.
func (h *Handler) enrichEntity(view *EntityView) {
	if h.deps.Oracle != nil {
		if snap, ok := h.deps.Oracle.Snapshot(view.ID); ok {
			loc := snap.Location
			view.Name = snap.Name
			view.Location = &loc
			if !snap.UpdatedAt.IsZero() {
				updated := snap.UpdatedAt
				view.UpdatedAt = &updated
			}
		}
	}
	if h.deps.Violations != nil {
		if v, ok := h.deps.Violations.Get(view.ID); ok {
			view.Violation = v.Level
		}
	}
}

// EntitySequences lists the live sequences of one entity.
func (h *Handler) EntitySequences(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := entityParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var (
		tracked bool
		views   []SequenceView
	)
	err = h.query(r.Context(), func(e *engine.Engine) {
		tracked = e.IsTracked(id)
		for _, o := range e.Live(id) {
			views = append(views, newSequenceView(o))
		}
	})
	if err != nil {
		writeError(rw, err)
		return
	}
	if !tracked {
		rw.NotFound("entity not tracked")
		return
	}
	if views == nil {
		views = []SequenceView{}
	}
	rw.List(views, len(views))
}

// AvoidEntity pauses dispatch of one event kind to an entity.
func (h *Handler) AvoidEntity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := entityParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	var req AvoidRequest
	if !h.decodeJSON(rw, w, r, &req) {
		return
	}
	kind, err := sequence.ParseEventKind(req.Kind)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	err = h.query(r.Context(), func(e *engine.Engine) {
		e.Avoid(id, kind, req.Ticks)
	})
	h.auditLog(r, "entity_avoided", id.String(), err, map[string]string{
		"kind":  kind.String(),
		"ticks": strconv.FormatInt(req.Ticks, 10),
	})
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Success(AvoidView{EntityID: id, Kind: kind.String(), Ticks: req.Ticks, Avoiding: true})
}

// ResumeEntity removes an avoid rule.
func (h *Handler) ResumeEntity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := entityParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	kind, err := sequence.ParseEventKind(chi.URLParam(r, "kind"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var removed bool
	err = h.query(r.Context(), func(e *engine.Engine) {
		removed = e.Resume(id, kind)
	})
	h.auditLog(r, "entity_resumed", id.String(), err, map[string]string{"kind": kind.String()})
	if err != nil {
		writeError(rw, err)
		return
	}
	if !removed {
		rw.NotFound("no avoid rule for " + kind.String())
		return
	}
	rw.Success(AvoidView{EntityID: id, Kind: kind.String(), Avoiding: false})
}
