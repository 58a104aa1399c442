// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/validation"
	"github.com/tomtom215/guardian/internal/world"
)

// sanitizeLogValue escapes control characters to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// readBody reads a request body bounded by MaxBodyBytes.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

// decodeJSON reads, decodes and validates a request body into dst. It
// writes the error response itself and reports whether decoding succeeded.
func (h *Handler) decodeJSON(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := h.readBody(w, r)
	if err != nil {
		rw.BadRequest(err.Error())
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		rw.BadRequest("Invalid request body")
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// entityParam parses the {id} path parameter.
func entityParam(r *http.Request) (world.EntityID, error) {
	return world.ParseEntityID(chi.URLParam(r, "id"))
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// auditLog records an admin mutation.
func (h *Handler) auditLog(r *http.Request, action, target string, err error, details map[string]string) {
	event := &logging.AuditEvent{
		Action:     action,
		Target:     target,
		RemoteAddr: r.RemoteAddr,
		RequestID:  logging.RequestIDFromContext(r.Context()),
		Success:    err == nil,
		Details:    details,
	}
	if err != nil {
		event.Error = err.Error()
	}
	h.audit.LogEvent(event)
}
