// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"net/http"

	"github.com/tomtom215/guardian/internal/intake"
)

// IngestEvent publishes one host event to the intake topic. It is accepted
// once published; the engine processes it asynchronously.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Publisher == nil {
		writeError(rw, ErrIntakeUnavailable)
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	ev, err := intake.Decode(body)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	if err := h.deps.Publisher.Publish(r.Context(), ev); err != nil {
		writeError(rw, err)
		return
	}
	rw.Accepted(map[string]string{
		"kind":      ev.Kind,
		"entity_id": ev.EntityID,
	})
}
