// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package detection

import (
	"fmt"
	"strings"

	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// InvalidStateConfig configures the invalid control state blueprint.
type InvalidStateConfig struct {
	// PeriodTicks is the interval between periodic checks.
	PeriodTicks int64 `json:"period_ticks" validate:"min=1"`

	// Checks is how many periodic checks must pass.
	Checks int `json:"checks" validate:"min=1,max=100"`

	// MinRatio is the share of sampled ticks that must be contradictory.
	MinRatio float64 `json:"min_ratio" validate:"gt=0,lte=1"`

	Curve      Curve      `json:"curve"`
	Thresholds Thresholds `json:"thresholds"`
}

// DefaultInvalidStateConfig returns sensible defaults.
func DefaultInvalidStateConfig() InvalidStateConfig {
	return InvalidStateConfig{
		PeriodTicks: 10,
		Checks:      3,
		MinRatio:    0.8,
		Curve:       Curve{Scale: 20, Exponent: 1, Max: 100},
		Thresholds:  Thresholds{Warning: 20, Critical: 60},
	}
}

// InvalidStateBlueprint flags entities that keep reporting mutually
// exclusive control flags.
type InvalidStateBlueprint struct {
	settings[InvalidStateConfig]
	env Env
}

// NewInvalidStateBlueprint creates an invalid-state blueprint with default
// config.
func NewInvalidStateBlueprint(env Env) *InvalidStateBlueprint {
	b := &InvalidStateBlueprint{env: env}
	b.config = DefaultInvalidStateConfig()
	b.enabled = true
	return b
}

func (b *InvalidStateBlueprint) Name() string                { return NameInvalidState }
func (b *InvalidStateBlueprint) Trigger() sequence.EventKind { return sequence.EventMove }

// Build creates an observe step followed by Checks periodic checks.
func (b *InvalidStateBlueprint) Build(world.EntityID) (*Plan, error) {
	cfg := b.get()
	actions := make([]sequence.Action, 0, cfg.Checks+1)
	actions = append(actions, sequence.Observe("contradiction", sequence.EventMove, contradictory))
	for i := 1; i <= cfg.Checks; i++ {
		actions = append(actions, sequence.Every(fmt.Sprintf("hold_%d", i), cfg.PeriodTicks, 3*cfg.PeriodTicks,
			b.check(cfg, i == cfg.Checks)))
	}
	return &Plan{
		Actions:  actions,
		Captures: []capture.Capture{capture.NewTickCapture(), capture.NewControlCapture(b.env.Coefficients)},
	}, nil
}

func contradictory(ev *sequence.Evaluation) error {
	bad := capture.Contradictions(ev.Snapshot.Control)
	if len(bad) == 0 {
		return sequence.Reject("control state %s is consistent", ev.Snapshot.Control)
	}
	ev.Evidence("observed %s", strings.Join(bad, ", "))
	return nil
}

func (b *InvalidStateBlueprint) check(cfg InvalidStateConfig, final bool) sequence.Condition {
	return func(ev *sequence.Evaluation) error {
		c := ev.Container
		samples, err := c.Int(capture.TickSamples)
		if err != nil {
			return err
		}
		bad, err := c.Int(capture.ControlContradictions)
		if err != nil {
			return err
		}
		if samples == 0 {
			return sequence.Reject("no samples")
		}
		ratio := float64(bad) / float64(samples)
		if ratio < cfg.MinRatio {
			return sequence.Reject("contradictory on %.0f%% of ticks", ratio*100)
		}
		if !final {
			return nil
		}

		kinds, err := c.Histogram(capture.ControlContradictionKinds)
		if err != nil {
			return err
		}
		seconds := float64(bad) * b.env.TickDuration.Seconds()
		ev.Metric("contradiction_ratio", ratio)
		ev.Metric("contradiction_ticks", float64(bad))
		ev.Flag(seconds*ratio, "contradictory control flags on %d of %d ticks %s", bad, samples, kinds)
		return nil
	}
}

// Report maps the outcome through the configured curve.
func (b *InvalidStateBlueprint) Report(o sequence.Outcome, snap world.Snapshot) *Report {
	cfg := b.get()
	return NewReport(o, snap, cfg.Curve, cfg.Thresholds)
}
