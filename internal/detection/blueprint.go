// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package detection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/validation"
	"github.com/tomtom215/guardian/internal/world"
)

// ErrUnknownDetection is returned for lookups of unregistered blueprints.
var ErrUnknownDetection = errors.New("unknown detection")

// Plan is the recipe for one sequence.
type Plan struct {
	Actions  []sequence.Action
	Captures []capture.Capture
}

// Blueprint is the interface that all detections implement.
type Blueprint interface {
	// Name returns the detection name.
	Name() string

	// Trigger returns the event kind that releases the first action.
	Trigger() sequence.EventKind

	// Build creates a fresh plan for one entity using the current config.
	Build(id world.EntityID) (*Plan, error)

	// Report converts a finished outcome into a report.
	Report(o sequence.Outcome, snap world.Snapshot) *Report

	// Configure replaces the configuration from JSON.
	Configure(config json.RawMessage) error

	// Config returns the current configuration as JSON.
	Config() json.RawMessage

	// Enabled returns whether new sequences are spawned.
	Enabled() bool

	// SetEnabled enables or disables the blueprint.
	SetEnabled(enabled bool)
}

// Env is what blueprints need from the surrounding process.
type Env struct {
	Oracle       world.Oracle
	Coefficients capture.Coefficients
	TickDuration time.Duration
}

// settings holds the mutable part shared by every blueprint: the enabled
// flag and a typed configuration.
type settings[T any] struct {
	mu      sync.RWMutex
	config  T
	enabled bool
}

func (s *settings[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *settings[T]) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *settings[T]) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func (s *settings[T]) Config() json.RawMessage {
	data, err := json.Marshal(s.get())
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// Configure decodes over a copy of the current config, validates it, and
// swaps it in only when valid.
func (s *settings[T]) Configure(raw json.RawMessage) error {
	next := s.get()
	if err := json.Unmarshal(raw, &next); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validation.ValidateStruct(&next); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	s.mu.Lock()
	s.config = next
	s.mu.Unlock()
	return nil
}

// Info describes a registered blueprint.
type Info struct {
	Name    string          `json:"name"`
	Trigger string          `json:"trigger"`
	Enabled bool            `json:"enabled"`
	Config  json.RawMessage `json:"config"`
}

// Registry holds the registered blueprints in registration order.
type Registry struct {
	mu         sync.RWMutex
	blueprints map[string]Blueprint
	order      []Blueprint
}

// NewRegistry creates a registry holding bps.
func NewRegistry(bps ...Blueprint) (*Registry, error) {
	r := &Registry{blueprints: make(map[string]Blueprint)}
	for _, bp := range bps {
		if err := r.Register(bp); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a blueprint.
func (r *Registry) Register(bp Blueprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blueprints[bp.Name()]; ok {
		return fmt.Errorf("detection %q already registered", bp.Name())
	}
	r.blueprints[bp.Name()] = bp
	r.order = append(r.order, bp)
	return nil
}

// Get looks up a blueprint by name.
func (r *Registry) Get(name string) (Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bp, ok := r.blueprints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDetection, name)
	}
	return bp, nil
}

// All returns the blueprints in registration order.
func (r *Registry) All() []Blueprint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Blueprint(nil), r.order...)
}

// SetEnabled toggles a blueprint by name.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	bp, err := r.Get(name)
	if err != nil {
		return err
	}
	bp.SetEnabled(enabled)
	return nil
}

// Configure reconfigures a blueprint by name.
func (r *Registry) Configure(name string, raw json.RawMessage) error {
	bp, err := r.Get(name)
	if err != nil {
		return err
	}
	return bp.Configure(raw)
}

// Info describes every blueprint.
func (r *Registry) Info() []Info {
	all := r.All()
	out := make([]Info, len(all))
	for i, bp := range all {
		out[i] = Info{
			Name:    bp.Name(),
			Trigger: bp.Trigger().String(),
			Enabled: bp.Enabled(),
			Config:  bp.Config(),
		}
	}
	return out
}

// Window bounds shared by the windowed blueprints. Tick ratios bound the
// overload guard.
type Window struct {
	WindowTicks  int64   `json:"window_ticks" validate:"min=1"`
	GraceTicks   int64   `json:"grace_ticks" validate:"min=0"`
	MinTickRatio float64 `json:"min_tick_ratio" validate:"gt=0"`
	MaxTickRatio float64 `json:"max_tick_ratio" validate:"gtefield=MinTickRatio"`
}

func (w Window) expire() int64 {
	return w.WindowTicks + w.GraceTicks
}

func (w Window) guard(tick time.Duration, next sequence.Condition) sequence.Condition {
	return sequence.GuardTickRate(w.MinTickRatio, w.MaxTickRatio, tick, next)
}
