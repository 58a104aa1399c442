// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
	"github.com/tomtom215/guardian/internal/world"
)

// ViolationConfig configures violation level tracking.
type ViolationConfig struct {
	// DecayInterval is how often levels decay.
	DecayInterval time.Duration `koanf:"decay_interval" validate:"required,min=1s"`

	// DecayAmount is subtracted from every level per interval.
	DecayAmount float64 `koanf:"decay_amount" validate:"gt=0"`

	// Threshold logs a warning the first time an entity's level reaches it.
	Threshold float64 `koanf:"threshold" validate:"gt=0"`
}

// DefaultViolationConfig returns production defaults.
func DefaultViolationConfig() ViolationConfig {
	return ViolationConfig{
		DecayInterval: time.Minute,
		DecayAmount:   5,
		Threshold:     100,
	}
}

// Violation is an entity's accumulated violation state.
type Violation struct {
	EntityID   world.EntityID `json:"entity_id"`
	EntityName string         `json:"entity_name,omitempty"`
	Level      float64        `json:"level"`
	Reports    int            `json:"reports"`
	Detections map[string]int `json:"detections"`
	LastReport time.Time      `json:"last_report"`
	Flagged    bool           `json:"flagged"`
}

func (v *Violation) clone() Violation {
	out := *v
	out.Detections = make(map[string]int, len(v.Detections))
	for k, n := range v.Detections {
		out.Detections[k] = n
	}
	return out
}

// ViolationTracker accumulates report severity per entity and decays it
// over time. An entity is dropped once its level decays to zero.
type ViolationTracker struct {
	config ViolationConfig

	mu      sync.RWMutex
	entries map[world.EntityID]*Violation
}

// NewViolationTracker creates a tracker.
func NewViolationTracker(config ViolationConfig) *ViolationTracker {
	if config.DecayInterval <= 0 {
		config.DecayInterval = DefaultViolationConfig().DecayInterval
	}
	return &ViolationTracker{
		config:  config,
		entries: make(map[world.EntityID]*Violation),
	}
}

// Name implements Sink.
func (t *ViolationTracker) Name() string {
	return "violations"
}

// Send adds the report's severity to its entity's level.
func (t *ViolationTracker) Send(_ context.Context, r *detection.Report) error {
	t.mu.Lock()
	v, ok := t.entries[r.EntityID]
	if !ok {
		v = &Violation{EntityID: r.EntityID, Detections: make(map[string]int)}
		t.entries[r.EntityID] = v
	}
	if r.EntityName != "" {
		v.EntityName = r.EntityName
	}
	v.Level += r.Severity
	v.Reports++
	v.Detections[r.Detection]++
	v.LastReport = r.CreatedAt
	crossed := !v.Flagged && t.config.Threshold > 0 && v.Level >= t.config.Threshold
	if crossed {
		v.Flagged = true
	}
	level := v.Level
	total := len(t.entries)
	t.mu.Unlock()

	metrics.ViolationLevel.Set(float64(total))
	if crossed {
		logging.Warn().
			Str("entity_id", r.EntityID.String()).
			Str("entity_name", r.EntityName).
			Float64("level", level).
			Float64("threshold", t.config.Threshold).
			Msg("violation threshold exceeded")
	}
	return nil
}

// Get returns one entity's violation state.
func (t *ViolationTracker) Get(id world.EntityID) (Violation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[id]
	if !ok {
		return Violation{}, false
	}
	return v.clone(), true
}

// All returns every entity, highest level first.
func (t *ViolationTracker) All() []Violation {
	t.mu.RLock()
	out := make([]Violation, 0, len(t.entries))
	for _, v := range t.entries {
		out = append(out, v.clone())
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].EntityID.String() < out[j].EntityID.String()
	})
	return out
}

// Decay applies one decay step. Flags clear once a level falls below the
// threshold again. It returns the number of entities dropped.
func (t *ViolationTracker) Decay() int {
	t.mu.Lock()
	dropped := 0
	for id, v := range t.entries {
		v.Level -= t.config.DecayAmount
		if v.Level <= 0 {
			delete(t.entries, id)
			dropped++
			continue
		}
		if v.Flagged && v.Level < t.config.Threshold {
			v.Flagged = false
		}
	}
	total := len(t.entries)
	t.mu.Unlock()

	metrics.ViolationLevel.Set(float64(total))
	return dropped
}

// RunWithContext decays levels every DecayInterval until ctx is canceled.
func (t *ViolationTracker) RunWithContext(ctx context.Context) error {
	logging.Info().
		Float64("amount", t.config.DecayAmount).
		Str("interval", t.config.DecayInterval.String()).
		Msg("starting violation decay scheduler")

	ticker := time.NewTicker(t.config.DecayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("violation decay scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if n := t.Decay(); n > 0 {
				logging.Debug().Int("dropped", n).Msg("violation levels decayed")
			}
		}
	}
}

// Serve implements suture.Service.
func (t *ViolationTracker) Serve(ctx context.Context) error {
	return t.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (t *ViolationTracker) String() string {
	return "violation-tracker"
}
