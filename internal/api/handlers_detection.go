// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/validation"
)

// Detections lists registered detections with their configuration.
func (h *Handler) Detections(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Detections == nil {
		rw.ServiceUnavailable("detections not available")
		return
	}
	infos := h.deps.Detections.Info()
	rw.List(infos, len(infos))
}

func (h *Handler) detectionInfo(name string) (detection.Info, bool) {
	for _, info := range h.deps.Detections.Info() {
		if info.Name == name {
			return info, true
		}
	}
	return detection.Info{}, false
}

// SetDetectionEnabled enables or disables a detection. Disabling stops new
// sequences; live ones run to completion.
func (h *Handler) SetDetectionEnabled(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Detections == nil {
		rw.ServiceUnavailable("detections not available")
		return
	}

	name := chi.URLParam(r, "name")
	var req EnabledRequest
	if !h.decodeJSON(rw, w, r, &req) {
		return
	}

	err := h.deps.Detections.SetEnabled(name, *req.Enabled)
	h.auditLog(r, "detection_enabled", name, err, map[string]string{
		"enabled": strconv.FormatBool(*req.Enabled),
	})
	if err != nil {
		writeError(rw, err)
		return
	}
	info, _ := h.detectionInfo(name)
	rw.Success(info)
}

// ConfigureDetection replaces a detection's configuration. The body is
// decoded over the current configuration, so omitted fields keep their
// values. Invalid configurations are rejected without changing anything.
func (h *Handler) ConfigureDetection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deps.Detections == nil {
		rw.ServiceUnavailable("detections not available")
		return
	}

	name := chi.URLParam(r, "name")
	body, err := h.readBody(w, r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !json.Valid(body) {
		rw.BadRequest("Invalid request body")
		return
	}

	err = h.deps.Detections.Configure(name, json.RawMessage(body))
	h.auditLog(r, "detection_configured", name, err, map[string]string{
		"config": string(body),
	})

	var verr *validation.RequestValidationError
	switch {
	case err == nil:
	case errors.Is(err, detection.ErrUnknownDetection), errors.As(err, &verr):
		writeError(rw, err)
		return
	default:
		rw.BadRequest(err.Error())
		return
	}

	info, _ := h.detectionInfo(name)
	rw.Success(info)
}
