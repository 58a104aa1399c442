// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	entityIDKey      contextKey = "entity_id"
)

// GenerateCorrelationID returns the first 8 characters of a random UUID.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a context carrying the correlation ID.
// Correlation IDs follow a host event from the HTTP ingest endpoint through
// the intake transport into the engine.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context with a fresh correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a context carrying the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithEntityID returns a context scoped to one tracked entity.
func ContextWithEntityID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, entityIDKey, id)
}

// EntityIDFromContext returns the entity ID, or "".
func EntityIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(entityIDKey).(string); ok {
		return id
	}
	return ""
}

// withContextFields adds every ID carried by ctx to logCtx.
//
//nolint:gocritic // zerolog.Context is designed to be passed by value
func withContextFields(ctx context.Context, logCtx zerolog.Context) zerolog.Context {
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := EntityIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("entity_id", id)
	}
	return logCtx
}

// Ctx returns the global logger with the IDs carried by ctx attached.
//
//	logging.Ctx(ctx).Info().Msg("Avoid rule added")
//	// {"level":"info","request_id":"...","entity_id":"...","message":"Avoid rule added"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := withContextFields(ctx, With()).Logger()
	return &logger
}

// CtxWith returns a logger context with the IDs carried by ctx, for callers
// that add their own fields.
func CtxWith(ctx context.Context) zerolog.Context {
	return withContextFields(ctx, With())
}
