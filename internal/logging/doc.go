// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

// Package logging provides zerolog-based structured logging for Guardian.
//
// A single global logger is configured once at startup from the logging
// section of the configuration and shared by every package. JSON output is
// the default; console output is meant for development.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("entity_id", id.String()).Msg("Entity joined")
//	logging.Error().Err(err).Str("sink", "webhook").Msg("Report delivery failed")
//
// # Configuration
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Context
//
// Correlation, request and entity IDs travel on the context.Context. Ctx
// returns a logger carrying whichever of them are present:
//
//	ctx = logging.ContextWithEntityID(ctx, id.String())
//	logging.Ctx(ctx).Warn().Msg("Avoid rule added")
//
// # Specialized Loggers
//
// EventLogger records host event intake (received, rejected, poisoned).
// AuditLogger records admin API changes such as toggling a detection or
// avoiding an entity; sensitive values are masked with SanitizeValue.
//
// # Supervisor Integration
//
// NewSlogLogger bridges the global logger to log/slog so the suture
// supervisor tree logs through the same output:
//
//	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
//
// # Testing
//
// Tests silence output in an init function and capture output where they
// assert on it:
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
package logging
