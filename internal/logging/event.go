// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventLogger provides specialized logging for host event intake.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger creates a logger configured for event intake.
func NewEventLogger() *EventLogger {
	return &EventLogger{
		logger: With().Str("component", "intake").Logger(),
	}
}

// NewEventLoggerWithLogger creates an EventLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value (copy-on-write semantics)
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.With().Str("component", "intake").Logger(),
	}
}

// loggerWithContext returns a logger with context fields added.
func (e *EventLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	return withContextFields(ctx, e.logger.With()).Logger()
}

// LogEventReceived logs a decoded host event. The entity comes from ctx.
func (e *EventLogger) LogEventReceived(ctx context.Context, messageID, kind string) {
	logger := e.loggerWithContext(ctx)
	logger.Debug().
		Str("message_id", messageID).
		Str("kind", kind).
		Msg("host event received")
}

// LogEventRejected logs a message that was acknowledged without processing.
func (e *EventLogger) LogEventRejected(ctx context.Context, messageID, reason string, err error) {
	logger := e.loggerWithContext(ctx)
	logger.Warn().
		Str("message_id", messageID).
		Str("reason", reason).
		Err(err).
		Msg("host event rejected")
}

// LogEventFailed logs a processing failure that will be retried.
func (e *EventLogger) LogEventFailed(ctx context.Context, messageID string, err error) {
	logger := e.loggerWithContext(ctx)
	logger.Error().
		Str("message_id", messageID).
		Err(err).
		Msg("host event processing failed")
}

// LogPoisoned logs a message routed to the poison queue.
func (e *EventLogger) LogPoisoned(messageID, topic, reason string) {
	e.logger.Warn().
		Str("message_id", messageID).
		Str("topic", topic).
		Str("reason", reason).
		Msg("host event sent to poison queue")
}

// LogSubscriptionStarted logs when a subscription is started.
func (e *EventLogger) LogSubscriptionStarted(transport, topic string) {
	e.logger.Info().
		Str("transport", transport).
		Str("topic", topic).
		Msg("subscription started")
}

// LogRouterStarted logs when the Watermill router starts.
func (e *EventLogger) LogRouterStarted() {
	e.logger.Info().Msg("router started")
}

// LogRouterStopped logs when the Watermill router stops.
func (e *EventLogger) LogRouterStopped(elapsed time.Duration) {
	e.logger.Info().Dur("uptime", elapsed).Msg("router stopped")
}

// addFieldPairs adds key-value pairs to a zerolog event.
func addFieldPairs(e *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			e = e.Interface(key, fields[i+1])
		}
	}
	return e
}
