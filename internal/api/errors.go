// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/report"
	"github.com/tomtom215/guardian/internal/validation"
)

// Common API errors
var (
	// ErrEngineUnavailable is returned when no engine is wired.
	ErrEngineUnavailable = errors.New("engine not available")

	// ErrIntakeUnavailable is returned when no event publisher is wired.
	ErrIntakeUnavailable = errors.New("event intake not available")
)

// writeError maps domain errors onto HTTP responses.
func writeError(rw *ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
	case errors.Is(err, detection.ErrUnknownDetection):
		rw.NotFound(err.Error())
	case errors.Is(err, report.ErrReportNotFound):
		rw.NotFound("report not found")
	case errors.Is(err, report.ErrStoreClosed),
		errors.Is(err, ErrEngineUnavailable),
		errors.Is(err, ErrIntakeUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		rw.ServiceUnavailable(err.Error())
	case errors.Is(err, engine.ErrInboxFull):
		rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, err.Error())
	default:
		rw.InternalError("internal error")
	}
}
