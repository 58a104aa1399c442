// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package sequence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/world"
)

// Condition decides whether an action passes. A nil return passes; any
// error cancels the sequence.
type Condition func(*Evaluation) error

// RejectionError is returned by a condition that judged the entity's
// behaviour as not matching.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "rejected: " + e.Reason
}

// Reject builds a *RejectionError.
func Reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// OverloadError reports that the server tick rate left its tolerance band,
// so accumulated statistics are not trustworthy.
type OverloadError struct {
	GameTicks int64
	WallTicks float64
	Ratio     float64
	Min       float64
	Max       float64
}

func (e *OverloadError) Error() string {
	return fmt.Sprintf("tick rate out of range: %d game ticks over %.1f wall ticks (ratio %.2f, allowed %.2f-%.2f)",
		e.GameTicks, e.WallTicks, e.Ratio, e.Min, e.Max)
}

// IsOverload reports whether err carries an *OverloadError.
func IsOverload(err error) bool {
	var oe *OverloadError
	return errors.As(err, &oe)
}

// Evaluation is the view a condition gets of its sequence.
type Evaluation struct {
	Container *capture.Container
	Snapshot  world.Snapshot
	Event     Event
	Action    Action

	// Step is the zero-based index of the action being evaluated.
	Step int

	// Tick is the event's tick. ElapsedTicks and Elapsed are measured from
	// the sequence start; StepTicks from the previous step.
	Tick         int64
	ElapsedTicks int64
	Elapsed      time.Duration
	StepTicks    int64

	out *findings
}

type findings struct {
	flagged  bool
	score    float64
	evidence []string
	metrics  map[string]float64
}

func (f *findings) merge(o *findings) {
	if o.flagged {
		f.flagged = true
		f.score = math.Max(f.score, o.score)
	}
	f.evidence = append(f.evidence, o.evidence...)
	for k, v := range o.metrics {
		if f.metrics == nil {
			f.metrics = make(map[string]float64)
		}
		f.metrics[k] = v
	}
}

// Flag marks the sequence as anomalous with a raw score. The highest score
// flagged over all steps is kept.
func (e *Evaluation) Flag(score float64, format string, args ...any) {
	e.out.flagged = true
	e.out.score = math.Max(e.out.score, score)
	e.out.evidence = append(e.out.evidence, fmt.Sprintf(format, args...))
}

// Evidence appends a human-readable evidence line.
func (e *Evaluation) Evidence(format string, args ...any) {
	e.out.evidence = append(e.out.evidence, fmt.Sprintf(format, args...))
}

// Metric records a named numeric value for the report.
func (e *Evaluation) Metric(name string, v float64) {
	if e.out.metrics == nil {
		e.out.metrics = make(map[string]float64)
	}
	e.out.metrics[name] = v
}

// Origin returns the baseline position written on the first step.
func (e *Evaluation) Origin() (world.Vec3, error) {
	return e.Container.Position(OriginSlot)
}

// Position returns the entity's current position, preferring the event.
func (e *Evaluation) Position() world.Vec3 {
	if e.Event.Location != nil {
		return e.Event.Location.Pos
	}
	return e.Snapshot.Location.Pos
}

// Displacement returns the vector from the origin to the current position.
func (e *Evaluation) Displacement() (world.Vec3, error) {
	origin, err := e.Origin()
	if err != nil {
		return world.Vec3{}, err
	}
	return e.Position().Sub(origin), nil
}

// All passes when every condition passes, stopping at the first error.
func All(conds ...Condition) Condition {
	return func(ev *Evaluation) error {
		for _, c := range conds {
			if c == nil {
				continue
			}
			if err := c(ev); err != nil {
				return err
			}
		}
		return nil
	}
}

// GuardTickRate wraps next with the server-overload check. The ratio of
// game ticks to wall-clock ticks since the sequence started must lie within
// [minRatio, maxRatio]; otherwise next is not evaluated and an *OverloadError is
// returned.
func GuardTickRate(minRatio, maxRatio float64, tickDuration time.Duration, next Condition) Condition {
	return func(ev *Evaluation) error {
		wall := float64(ev.Elapsed) / float64(tickDuration)
		if wall <= 0 {
			return &OverloadError{GameTicks: ev.ElapsedTicks, Min: minRatio, Max: maxRatio}
		}
		ratio := float64(ev.ElapsedTicks) / wall
		if ratio < minRatio || ratio > maxRatio {
			return &OverloadError{
				GameTicks: ev.ElapsedTicks,
				WallTicks: wall,
				Ratio:     ratio,
				Min:       minRatio,
				Max:       maxRatio,
			}
		}
		if next == nil {
			return nil
		}
		return next(ev)
	}
}
