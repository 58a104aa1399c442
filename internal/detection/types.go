// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package detection

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// Blueprint names.
const (
	NameFlight       = "flight"
	NameSpeed        = "speed"
	NameInvalidState = "invalid_state"
)

// Level classifies a report's severity.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Rank orders levels for minimum-level filtering.
func (l Level) Rank() int {
	switch l {
	case LevelCritical:
		return 2
	case LevelWarning:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above floor.
func (l Level) AtLeast(floor Level) bool {
	return l.Rank() >= floor.Rank()
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelInfo, LevelWarning, LevelCritical:
		return Level(s), nil
	default:
		return "", fmt.Errorf("unknown level %q", s)
	}
}

// Curve maps a raw anomaly score to a severity:
// min(Max, Scale * score^Exponent). Non-positive scores map to zero and a
// zero Max leaves the curve uncapped.
type Curve struct {
	Scale    float64 `json:"scale" validate:"gt=0"`
	Exponent float64 `json:"exponent" validate:"gt=0"`
	Max      float64 `json:"max" validate:"gte=0"`
}

// Apply evaluates the curve.
func (c Curve) Apply(score float64) float64 {
	if score <= 0 {
		return 0
	}
	exp := c.Exponent
	if exp == 0 {
		exp = 1
	}
	v := c.Scale * math.Pow(score, exp)
	if c.Max > 0 && v > c.Max {
		return c.Max
	}
	return v
}

// Thresholds split severities into levels.
type Thresholds struct {
	Warning  float64 `json:"warning" validate:"gte=0"`
	Critical float64 `json:"critical" validate:"gtefield=Warning"`
}

// Level classifies a severity.
func (t Thresholds) Level(severity float64) Level {
	switch {
	case severity >= t.Critical:
		return LevelCritical
	case severity >= t.Warning:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// Report is the result of a FINISHED sequence.
type Report struct {
	ID         string             `json:"id"`
	Detection  string             `json:"detection"`
	SequenceID string             `json:"sequence_id"`
	EntityID   world.EntityID     `json:"entity_id"`
	EntityName string             `json:"entity_name,omitempty"`
	Severity   float64            `json:"severity"`
	Level      Level              `json:"level"`
	Score      float64            `json:"score"`
	Evidence   []string           `json:"evidence"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Captures   map[string]float64 `json:"captures,omitempty"`
	Start      world.Location     `json:"start"`
	End        world.Location     `json:"end"`
	StartTick  int64              `json:"start_tick"`
	EndTick    int64              `json:"end_tick"`
	StartedAt  time.Time          `json:"started_at"`
	EndedAt    time.Time          `json:"ended_at"`
	Duration   time.Duration      `json:"duration"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Title renders a one-line summary used by notifiers.
func (r *Report) Title() string {
	name := r.EntityName
	if name == "" {
		name = r.EntityID.String()
	}
	return fmt.Sprintf("[%s] %s: %s (severity %.1f)", r.Level, r.Detection, name, r.Severity)
}

// NewReport builds a report from a finished sequence outcome.
func NewReport(o sequence.Outcome, snap world.Snapshot, curve Curve, thresholds Thresholds) *Report {
	severity := curve.Apply(o.Score)
	return &Report{
		ID:         uuid.NewString(),
		Detection:  o.Detection,
		SequenceID: o.ID.String(),
		EntityID:   o.Entity,
		EntityName: snap.Name,
		Severity:   severity,
		Level:      thresholds.Level(severity),
		Score:      o.Score,
		Evidence:   o.Evidence,
		Metrics:    o.Metrics,
		Captures:   o.Captures,
		Start:      o.Origin,
		End:        o.End,
		StartTick:  o.StartTick,
		EndTick:    o.EndTick,
		StartedAt:  o.StartTime,
		EndedAt:    o.EndTime,
		Duration:   o.EndTime.Sub(o.StartTime),
		CreatedAt:  time.Now().UTC(),
	}
}
