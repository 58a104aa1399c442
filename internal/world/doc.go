// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

// Package world defines the read-only view Guardian has of the host game
// server: tracked entity snapshots, block materials and world bounds.
//
// The host engine is treated as an oracle. Guardian never mutates entities or
// blocks; it only reads them through the Oracle interface. The Mirror type is
// an in-memory Oracle kept up to date from host events delivered by the intake
// pipeline, so the detection engine can run in a separate process from the
// game server.
//
// # Coordinates
//
// Positions are block-space float64 vectors. Y is vertical. Block lookups
// floor each axis to the containing integer block.
//
// # Time
//
// TimeProvider abstracts the wall clock. The overload guard compares wall
// clock elapsed time against elapsed game ticks, so tests inject a
// MockTimeProvider to simulate server lag deterministically.
package world
