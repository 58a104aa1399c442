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

// FlightConfig configures the flight blueprint.
type FlightConfig struct {
	Window

	// MinAirborneRatio is the share of sampled ticks that must be airborne.
	MinAirborneRatio float64 `json:"min_airborne_ratio" validate:"gt=0,lte=1"`

	// JumpAllowance is the ascent in blocks a plain jump may add.
	JumpAllowance float64 `json:"jump_allowance" validate:"gte=0"`

	// Tolerance is the excess ascent in blocks ignored before flagging.
	Tolerance float64 `json:"tolerance" validate:"gte=0"`

	// ExemptEffects skip entities carrying any of these effects.
	ExemptEffects []string `json:"exempt_effects"`

	Curve      Curve      `json:"curve"`
	Thresholds Thresholds `json:"thresholds"`
}

// DefaultFlightConfig returns sensible defaults.
func DefaultFlightConfig() FlightConfig {
	return FlightConfig{
		Window: Window{
			WindowTicks:  40,
			GraceTicks:   20,
			MinTickRatio: 0.85,
			MaxTickRatio: 1.15,
		},
		MinAirborneRatio: 0.9,
		JumpAllowance:    1.25,
		Tolerance:        0.5,
		ExemptEffects:    []string{"levitation", "slow_falling"},
		Curve:            Curve{Scale: 10, Exponent: 1, Max: 100},
		Thresholds:       Thresholds{Warning: 20, Critical: 60},
	}
}

// FlightBlueprint flags entities that stay airborne without permission and
// do not descend as gravity requires.
type FlightBlueprint struct {
	settings[FlightConfig]
	env Env
}

// NewFlightBlueprint creates a flight blueprint with default config.
func NewFlightBlueprint(env Env) *FlightBlueprint {
	b := &FlightBlueprint{env: env}
	b.config = DefaultFlightConfig()
	b.enabled = true
	return b
}

func (b *FlightBlueprint) Name() string                { return NameFlight }
func (b *FlightBlueprint) Trigger() sequence.EventKind { return sequence.EventMove }

// Build creates the observe-then-check plan.
func (b *FlightBlueprint) Build(world.EntityID) (*Plan, error) {
	cfg := b.get()
	return &Plan{
		Actions: []sequence.Action{
			sequence.Observe("airborne", sequence.EventMove, b.observe(cfg)),
			sequence.After("ascent", sequence.EventMove, cfg.WindowTicks, cfg.expire(),
				cfg.guard(b.env.TickDuration, b.check(cfg))),
		},
		Captures: capture.Standard(b.env.Coefficients),
	}, nil
}

func (b *FlightBlueprint) observe(cfg FlightConfig) sequence.Condition {
	return func(ev *sequence.Evaluation) error {
		ctrl := ev.Snapshot.Control
		if ctrl.Any(world.ControlAllowFlight | world.ControlFlying | world.ControlGliding |
			world.ControlInVehicle | world.ControlSitting | world.ControlSwimming) {
			return sequence.Reject("movement mode %s is exempt", ctrl)
		}
		for _, effect := range cfg.ExemptEffects {
			if _, ok := ev.Snapshot.EffectAmplifier(effect); ok {
				return sequence.Reject("effect %s is exempt", effect)
			}
		}
		loc := world.Location{World: ev.Snapshot.Location.World, Pos: ev.Position()}
		if alt := capture.RelativeAltitude(b.env.Oracle, loc); alt <= capture.AirborneThreshold {
			return sequence.Reject("grounded (altitude %.2f)", alt)
		}
		return nil
	}
}

func (b *FlightBlueprint) check(cfg FlightConfig) sequence.Condition {
	return func(ev *sequence.Evaluation) error {
		c := ev.Container
		samples, err := c.Int(capture.TickSamples)
		if err != nil {
			return err
		}
		airborne, err := c.Int(capture.AltitudeAirborne)
		if err != nil {
			return err
		}
		maxAlt, err := c.Float(capture.AltitudeMax)
		if err != nil {
			return err
		}
		if samples == 0 {
			return sequence.Reject("no samples")
		}
		ratio := float64(airborne) / float64(samples)
		if ratio < cfg.MinAirborneRatio {
			return sequence.Reject("airborne %.0f%% of window", ratio*100)
		}

		expected, err := c.Float(capture.ControlExpectedVertical)
		if err != nil {
			return err
		}
		jumpBoost, err := capture.Mean(c, capture.EffectVertical)
		if err != nil {
			return err
		}
		d, err := ev.Displacement()
		if err != nil {
			return err
		}

		budget := expected + cfg.JumpAllowance*(1+jumpBoost)
		excess := d.Y - budget
		ev.Metric("rise", d.Y)
		ev.Metric("budget", budget)
		ev.Metric("airborne_ratio", ratio)
		if excess <= cfg.Tolerance {
			return sequence.Reject("rise %.2f within budget %.2f", d.Y, budget)
		}

		ev.Flag(excess, "rose %.2f blocks against a budget of %.2f over %d ticks", d.Y, budget, ev.ElapsedTicks)
		ev.Evidence("airborne %d of %d sampled ticks, peak altitude %.2f", airborne, samples, maxAlt)
		return nil
	}
}

// Report maps the outcome through the configured curve.
func (b *FlightBlueprint) Report(o sequence.Outcome, snap world.Snapshot) *Report {
	cfg := b.get()
	return NewReport(o, snap, cfg.Curve, cfg.Thresholds)
}
