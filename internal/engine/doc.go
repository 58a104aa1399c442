// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package engine owns every live sequence in the process.

The Engine routes events to the sequences of one tracked entity, spawns new
sequences from the registered blueprints, removes terminal sequences and hands
reports from finished ones to a ReportSink.

# Ownership

An Engine is not safe for concurrent use. The Runner owns it on a single
goroutine and serialises three inputs:

  - host events submitted through Runner.Submit (buffered inbox)
  - a fixed-rate ticker that advances the engine clock and pulses a
    round-robin batch of entities with synthetic tick events
  - read-only queries from other goroutines through Runner.Query

# Dispatch

For each event the engine:

 1. drops it when the (entity, kind) pair is in the avoid set
 2. samples, steps and re-samples every live sequence of the entity
 3. removes terminal sequences; finished and flagged ones produce reports
 4. spawns a sequence for every enabled blueprint whose trigger matches the
    event kind and that has no live sequence for the entity

At most one sequence per (entity, detection) pair is live at any time.

# Clock

The engine clock counts game ticks. Events are stamped with the current tick
and the wall time of the injected TimeProvider, so the tick-rate guard in
detection blueprints compares the engine's own tick progress against wall
time.

# Teleports

Teleport and respawn events cancel every live sequence of the entity and
suppress its move events for a configured number of ticks, since motion
across a teleport is not comparable.
*/
package engine
