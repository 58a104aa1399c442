// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package sequence implements the per-entity timed state machine that drives a
single detection.

A Sequence holds a queue of Actions and a capture.Registry. It starts
INACTIVE, becomes ACTIVE when its first action passes, and ends in exactly one
of FINISHED, EXPIRED or CANCELLED. Terminal states never change again.

# Actions

Three action kinds exist and are dispatched by one switch in Step:

  - Observer: passes on the first matching event. A mismatch on the very
    first Observer cancels the sequence.
  - After: passes on a matching event once Delay ticks have elapsed since the
    previous step, and expires after Expire ticks.
  - Schedule: passes on a tick pulse once Period ticks have elapsed since the
    previous step.

Delay and Expire are always measured from the previous step, never from the
sequence start. Once a step is late, the sequence expires on whatever event
arrives next, matching or not.

# Conditions

A Condition inspects an Evaluation and returns nil to pass. Any error cancels
the sequence. Reading a capture slot that was never written yields
capture.ErrSlotMissing, so conditions fail closed. GuardTickRate wraps a
condition with the server-overload check and returns an *OverloadError when
the ratio of game ticks to wall-clock ticks leaves the configured band.

# Sampling

Sample runs the registry's captures at most once per tick and only while the
sequence is ACTIVE, independently of whether a step advanced.
*/
package sequence
