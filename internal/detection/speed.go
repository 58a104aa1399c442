// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package detection

import (
	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// SpeedConfig configures the horizontal speed blueprint.
type SpeedConfig struct {
	Window

	// Tolerance is the fraction by which the budget may be exceeded.
	Tolerance float64 `json:"tolerance" validate:"gte=0"`

	// MinDistance ignores windows with less horizontal travel (blocks).
	MinDistance float64 `json:"min_distance" validate:"gte=0"`

	// LatencyAllowance adds blocks of budget per 100ms of mean ping.
	LatencyAllowance float64 `json:"latency_allowance" validate:"gte=0"`

	Curve      Curve      `json:"curve"`
	Thresholds Thresholds `json:"thresholds"`
}

// DefaultSpeedConfig returns sensible defaults.
func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		Window: Window{
			WindowTicks:  40,
			GraceTicks:   20,
			MinTickRatio: 0.85,
			MaxTickRatio: 1.15,
		},
		Tolerance:        0.1,
		MinDistance:      2,
		LatencyAllowance: 0.5,
		Curve:            Curve{Scale: 40, Exponent: 1, Max: 100},
		Thresholds:       Thresholds{Warning: 20, Critical: 60},
	}
}

// SpeedBlueprint flags on-foot entities whose horizontal travel over a
// window exceeds what their control state, effects and surface allow.
type SpeedBlueprint struct {
	settings[SpeedConfig]
	env Env
}

// NewSpeedBlueprint creates a speed blueprint with default config.
func NewSpeedBlueprint(env Env) *SpeedBlueprint {
	b := &SpeedBlueprint{env: env}
	b.config = DefaultSpeedConfig()
	b.enabled = true
	return b
}

func (b *SpeedBlueprint) Name() string                { return NameSpeed }
func (b *SpeedBlueprint) Trigger() sequence.EventKind { return sequence.EventMove }

// Build creates the observe-then-check plan.
func (b *SpeedBlueprint) Build(world.EntityID) (*Plan, error) {
	cfg := b.get()
	return &Plan{
		Actions: []sequence.Action{
			sequence.Observe("on_foot", sequence.EventMove, onFoot),
			sequence.After("distance", sequence.EventMove, cfg.WindowTicks, cfg.expire(),
				cfg.guard(b.env.TickDuration, b.check(cfg))),
		},
		Captures: capture.Standard(b.env.Coefficients),
	}, nil
}

func onFoot(ev *sequence.Evaluation) error {
	ctrl := ev.Snapshot.Control
	if ctrl.Any(world.ControlFlying | world.ControlGliding | world.ControlInVehicle |
		world.ControlSitting | world.ControlSwimming) {
		return sequence.Reject("movement mode %s is exempt", ctrl)
	}
	return nil
}

func (b *SpeedBlueprint) check(cfg SpeedConfig) sequence.Condition {
	return func(ev *sequence.Evaluation) error {
		c := ev.Container
		d, err := ev.Displacement()
		if err != nil {
			return err
		}
		distance := d.HorizontalLen()
		if distance < cfg.MinDistance {
			return sequence.Reject("travelled %.2f blocks", distance)
		}

		expected, err := c.Float(capture.ControlExpectedHorizontal)
		if err != nil {
			return err
		}
		effect, err := capture.Mean(c, capture.EffectHorizontal)
		if err != nil {
			return err
		}
		material, err := capture.Mean(c, capture.MaterialSum)
		if err != nil {
			return err
		}
		ping, err := c.Float(capture.PingMean)
		if err != nil {
			return err
		}

		budget := expected*(1+effect)*material + cfg.LatencyAllowance*ping/100
		ev.Metric("distance", distance)
		ev.Metric("budget", budget)
		if budget <= 0 {
			ev.Flag(distance, "travelled %.2f blocks with no movement budget", distance)
			return nil
		}

		excess := distance/budget - 1
		ev.Metric("excess_ratio", excess)
		if excess <= cfg.Tolerance {
			return sequence.Reject("travelled %.2f blocks within budget %.2f", distance, budget)
		}
		ev.Flag(excess, "travelled %.2f blocks against a budget of %.2f over %d ticks", distance, budget, ev.ElapsedTicks)
		ev.Evidence("effect factor %.2f, surface factor %.2f, ping %.0fms", 1+effect, material, ping)
		return nil
	}
}

// Report maps the outcome through the configured curve.
func (b *SpeedBlueprint) Report(o sequence.Outcome, snap world.Snapshot) *Report {
	cfg := b.get()
	return NewReport(o, snap, cfg.Curve, cfg.Thresholds)
}
