// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator, reports fields by their json or
// koanf key, and translates failures into readable messages and the API
// error format.
//
// # Quick Start
//
//	type AvoidRequest struct {
//	    Kind  string `json:"kind" validate:"required,event_kind"`
//	    Ticks int64  `json:"ticks" validate:"min=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // apiErr.Code == "VALIDATION_FAILED"
//	}
//
// # Custom Validators
//
//   - event_kind: an engine event kind name (move, join, leave, teleport,
//     respawn, vehicle, tick)
//
// # Users
//
// Configuration sections (internal/config), detection configs
// (internal/detection), host events (internal/intake) and admin API request
// bodies (internal/api) are all validated here.
//
// # Error Handling
//
// ValidateStruct returns *RequestValidationError, not error. Returning it
// through an error-typed variable turns a nil pointer into a non-nil
// interface, so compare the concrete result against nil before wrapping:
//
//	if verr := validation.ValidateStruct(&cfg); verr != nil {
//	    return fmt.Errorf("invalid config: %w", verr)
//	}
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use; struct
// metadata is cached after the first validation of each type.
package validation
