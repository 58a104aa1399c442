// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package engine

import (
	"context"
	"errors"

	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// ReportSink receives reports from finished sequences. Submit must not
// block the engine goroutine for long.
type ReportSink interface {
	Submit(ctx context.Context, report *detection.Report)
}

// forgetter is implemented by oracles that keep per-entity state, such as
// world.Mirror. Leave drops the entity from it.
type forgetter interface {
	Remove(id world.EntityID)
}

// Config configures the engine.
type Config struct {
	// BatchSize is the number of active entities pulsed per tick.
	// Zero pulses every active entity.
	BatchSize int `koanf:"batch_size" validate:"min=0"`

	// TeleportAvoidTicks suppresses move events after a teleport or respawn.
	TeleportAvoidTicks int64 `koanf:"teleport_avoid_ticks" validate:"min=0"`

	// AutoJoin tracks entities on their first event when no join was seen,
	// e.g. after a restart while players are online.
	AutoJoin bool `koanf:"auto_join"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:          0,
		TeleportAvoidTicks: 20,
		AutoJoin:           true,
	}
}

// Stats is a point-in-time view of the engine counters.
type Stats struct {
	Tick       int64 `json:"tick"`
	Tracked    int   `json:"tracked"`
	Live       int   `json:"live"`
	AvoidRules int   `json:"avoid_rules"`

	Dispatched int64 `json:"dispatched"`
	Avoided    int64 `json:"avoided"`
	Spawned    int64 `json:"spawned"`
	Finished   int64 `json:"finished"`
	Expired    int64 `json:"expired"`
	Cancelled  int64 `json:"cancelled"`
	Discarded  int64 `json:"discarded"`
	Overloads  int64 `json:"overloads"`
	Reports    int64 `json:"reports"`
}

// tracked is the per-entity state: live sequences keyed by detection name.
type tracked struct {
	id     world.EntityID
	live   map[string]*sequence.Sequence
	joined int64
}

// Engine is the sequence controller. One goroutine owns it.
type Engine struct {
	config     Config
	blueprints *detection.Registry
	oracle     world.Oracle
	clock      world.TimeProvider
	sink       ReportSink

	entities map[world.EntityID]*tracked
	order    []world.EntityID
	cursor   int
	tick     int64
	avoid    *avoidSet
	stats    Stats
}

// New creates an engine. clock and sink may be nil.
func New(config Config, blueprints *detection.Registry, oracle world.Oracle, clock world.TimeProvider, sink ReportSink) *Engine {
	if clock == nil {
		clock = world.SystemTime{}
	}
	return &Engine{
		config:     config,
		blueprints: blueprints,
		oracle:     oracle,
		clock:      clock,
		sink:       sink,
		entities:   make(map[world.EntityID]*tracked),
		avoid:      newAvoidSet(),
	}
}

// Blueprints returns the blueprint registry.
func (e *Engine) Blueprints() *detection.Registry { return e.blueprints }

// Now returns the current engine tick.
func (e *Engine) Now() int64 { return e.tick }

// Join starts tracking id. Joining a tracked entity is a no-op.
func (e *Engine) Join(id world.EntityID) bool {
	if _, ok := e.entities[id]; ok {
		return false
	}
	e.entities[id] = &tracked{
		id:     id,
		live:   make(map[string]*sequence.Sequence),
		joined: e.tick,
	}
	e.order = append(e.order, id)
	metrics.TrackedEntities.Set(float64(len(e.entities)))
	logging.Debug().Str("entity", id.String()).Int64("tick", e.tick).Msg("entity joined")
	return true
}

// Leave stops tracking id. Live sequences are discarded without reports and
// every avoid entry of the entity is dropped.
func (e *Engine) Leave(id world.EntityID) bool {
	t, ok := e.entities[id]
	if !ok {
		return false
	}
	for name := range t.live {
		delete(t.live, name)
		e.stats.Discarded++
		metrics.RecordTermination(name, "discarded")
	}
	delete(e.entities, id)
	for i, other := range e.order {
		if other == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			if e.cursor > i {
				e.cursor--
			}
			break
		}
	}
	e.avoid.removeEntity(id)
	if f, ok := e.oracle.(forgetter); ok {
		f.Remove(id)
	}
	metrics.TrackedEntities.Set(float64(len(e.entities)))
	logging.Debug().Str("entity", id.String()).Int64("tick", e.tick).Msg("entity left")
	return true
}

// Avoid suppresses dispatch of kind for id. ticks <= 0 suppresses until
// Resume.
func (e *Engine) Avoid(id world.EntityID, kind sequence.EventKind, ticks int64) {
	e.avoid.add(id, kind, e.tick, ticks)
}

// Resume removes an avoid entry.
func (e *Engine) Resume(id world.EntityID, kind sequence.EventKind) bool {
	return e.avoid.remove(id, kind)
}

// Avoiding reports whether kind is currently suppressed for id.
func (e *Engine) Avoiding(id world.EntityID, kind sequence.EventKind) bool {
	return e.avoid.active(id, kind, e.tick)
}

// AvoidedKinds lists the kinds currently suppressed for id.
func (e *Engine) AvoidedKinds(id world.EntityID) []sequence.EventKind {
	return e.avoid.kinds(id)
}

// Tracked returns the tracked entities in join order.
func (e *Engine) Tracked() []world.EntityID {
	return append([]world.EntityID(nil), e.order...)
}

// IsTracked reports whether id is tracked.
func (e *Engine) IsTracked(id world.EntityID) bool {
	_, ok := e.entities[id]
	return ok
}

// Live returns outcomes of the live sequences of id in blueprint order.
func (e *Engine) Live(id world.EntityID) []sequence.Outcome {
	t, ok := e.entities[id]
	if !ok {
		return nil
	}
	out := make([]sequence.Outcome, 0, len(t.live))
	for _, bp := range e.blueprints.All() {
		if seq, ok := t.live[bp.Name()]; ok {
			out = append(out, seq.Outcome())
		}
	}
	return out
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Tick = e.tick
	s.Tracked = len(e.entities)
	s.AvoidRules = e.avoid.len()
	s.Live = 0
	for _, t := range e.entities {
		s.Live += len(t.live)
	}
	return s
}

// Dispatch routes one event. Join and leave events drive the entity
// lifecycle. The event is stamped with the engine tick and clock.
func (e *Engine) Dispatch(ctx context.Context, ev sequence.Event) []*detection.Report {
	ev.Tick = e.tick
	ev.At = e.clock.Now()

	switch ev.Kind {
	case sequence.EventJoin:
		e.Join(ev.Entity)
		return nil
	case sequence.EventLeave:
		e.Leave(ev.Entity)
		return nil
	case sequence.EventTeleport, sequence.EventRespawn:
		e.relocate(ev)
		return nil
	}

	if e.avoid.active(ev.Entity, ev.Kind, e.tick) {
		e.stats.Avoided++
		metrics.RecordDispatch(ev.Kind.String(), true)
		return nil
	}

	t, ok := e.entities[ev.Entity]
	if !ok {
		if !e.config.AutoJoin {
			return nil
		}
		e.Join(ev.Entity)
		t = e.entities[ev.Entity]
	}

	e.stats.Dispatched++
	metrics.RecordDispatch(ev.Kind.String(), false)
	return e.dispatch(ctx, t, ev)
}

// Tick advances the engine clock by one game tick and pulses one
// round-robin batch of entities that have live sequences or are waiting on
// a tick-triggered blueprint.
func (e *Engine) Tick(ctx context.Context) []*detection.Report {
	e.tick++
	e.avoid.sweep(e.tick)

	var reports []*detection.Report
	for _, id := range e.batch(e.tickBlueprints()) {
		t := e.entities[id]
		ev := sequence.Event{Kind: sequence.EventTick, Entity: id, Tick: e.tick, At: e.clock.Now()}
		if e.avoid.active(id, sequence.EventTick, e.tick) {
			e.stats.Avoided++
			metrics.RecordDispatch(ev.Kind.String(), true)
			continue
		}
		reports = append(reports, e.dispatch(ctx, t, ev)...)
	}
	return reports
}

// tickBlueprints returns the enabled blueprints whose first action waits
// for the tick pulse.
func (e *Engine) tickBlueprints() []detection.Blueprint {
	var out []detection.Blueprint
	for _, bp := range e.blueprints.All() {
		if bp.Enabled() && bp.Trigger() == sequence.EventTick {
			out = append(out, bp)
		}
	}
	return out
}

// batch selects the next round-robin slice of entities with live sequences.
// While a tick-triggered blueprint is enabled every tracked entity is
// eligible, since any of them may need a sequence spawned.
func (e *Engine) batch(tickBps []detection.Blueprint) []world.EntityID {
	var active []world.EntityID
	for _, id := range e.order {
		if len(e.entities[id].live) > 0 || len(tickBps) > 0 {
			active = append(active, id)
		}
	}
	size := e.config.BatchSize
	if size <= 0 || size >= len(active) {
		return active
	}

	start := e.cursor % len(active)
	out := make([]world.EntityID, 0, size)
	for i := 0; i < size; i++ {
		out = append(out, active[(start+i)%len(active)])
	}
	e.cursor = (start + size) % len(active)
	return out
}

// relocate cancels every live sequence of the entity and suppresses move
// events while the new position settles.
func (e *Engine) relocate(ev sequence.Event) {
	if e.config.TeleportAvoidTicks > 0 {
		e.avoid.add(ev.Entity, sequence.EventMove, e.tick, e.config.TeleportAvoidTicks)
	}
	if t, ok := e.entities[ev.Entity]; ok {
		for name, seq := range t.live {
			seq.Cancel(ev, ev.Kind.String())
			delete(t.live, name)
			e.stats.Cancelled++
			metrics.RecordTermination(name, seq.State().String())
		}
	}
	logging.Debug().
		Str("entity", ev.Entity.String()).
		Str("kind", ev.Kind.String()).
		Int64("avoid_ticks", e.config.TeleportAvoidTicks).
		Msg("entity relocated, sequences reset")
}

func (e *Engine) snapshot(ev sequence.Event) world.Snapshot {
	if e.oracle != nil {
		if snap, ok := e.oracle.Snapshot(ev.Entity); ok {
			return snap
		}
	}
	snap := world.Snapshot{ID: ev.Entity}
	if ev.Location != nil {
		snap.Location = *ev.Location
	}
	return snap
}

func (e *Engine) dispatch(ctx context.Context, t *tracked, ev sequence.Event) []*detection.Report {
	snap := e.snapshot(ev)
	subject := capture.Subject{Snapshot: snap, Oracle: e.oracle, Tick: ev.Tick}

	var reports []*detection.Report
	bps := e.blueprints.All()

	for _, bp := range bps {
		seq, ok := t.live[bp.Name()]
		if !ok {
			continue
		}
		e.drive(seq, ev, subject)
		if r := e.collect(ctx, t, bp, seq, snap); r != nil {
			reports = append(reports, r)
		}
	}

	for _, bp := range bps {
		if _, ok := t.live[bp.Name()]; ok {
			continue
		}
		if !bp.Enabled() || bp.Trigger() != ev.Kind {
			continue
		}
		seq, err := e.spawn(t, bp)
		if err != nil {
			logging.Error().Err(err).Str("detection", bp.Name()).Msg("failed to spawn sequence")
			continue
		}
		e.drive(seq, ev, subject)
		if r := e.collect(ctx, t, bp, seq, snap); r != nil {
			reports = append(reports, r)
		}
	}
	return reports
}

func (e *Engine) spawn(t *tracked, bp detection.Blueprint) (*sequence.Sequence, error) {
	plan, err := bp.Build(t.id)
	if err != nil {
		return nil, err
	}
	seq, err := sequence.New(t.id, bp.Name(), plan.Actions, plan.Captures)
	if err != nil {
		return nil, err
	}
	t.live[bp.Name()] = seq
	e.stats.Spawned++
	metrics.RecordSpawn(bp.Name())
	return seq, nil
}

// drive samples, steps and re-samples one sequence.
func (e *Engine) drive(seq *sequence.Sequence, ev sequence.Event, subject capture.Subject) {
	if err := seq.Sample(subject); err != nil {
		e.logFailure(seq, err)
		return
	}
	res, err := seq.Step(ev, subject.Snapshot)
	if err != nil {
		e.logFailure(seq, err)
		return
	}
	if res == sequence.StepAdvanced && seq.Steps() == 1 {
		logging.Debug().
			Str("entity", seq.Entity().String()).
			Str("detection", seq.Detection()).
			Str("sequence_id", seq.ID().String()).
			Msg("sequence activated")
	}
	if err := seq.Sample(subject); err != nil {
		e.logFailure(seq, err)
	}
}

func (e *Engine) logFailure(seq *sequence.Sequence, err error) {
	var overload *sequence.OverloadError
	switch {
	case errors.As(err, &overload):
		e.stats.Overloads++
		metrics.OverloadRejections.WithLabelValues(seq.Detection()).Inc()
		logging.Warn().
			Str("entity", seq.Entity().String()).
			Str("detection", seq.Detection()).
			Int64("game_ticks", overload.GameTicks).
			Float64("wall_ticks", overload.WallTicks).
			Float64("ratio", overload.Ratio).
			Msg("tick rate out of tolerance, sequence rejected")
	case errors.Is(err, capture.ErrSlotMissing):
		logging.Warn().Err(err).
			Str("entity", seq.Entity().String()).
			Str("detection", seq.Detection()).
			Msg("missing capture data, sequence rejected")
	default:
		// Rejections, mismatches and expiry are the normal way a sequence ends.
		logging.Debug().Err(err).
			Str("entity", seq.Entity().String()).
			Str("detection", seq.Detection()).
			Str("state", seq.State().String()).
			Msg("sequence ended")
	}
}

// collect removes a terminal sequence from the live set and returns its
// report when it finished with a finding.
func (e *Engine) collect(ctx context.Context, t *tracked, bp detection.Blueprint, seq *sequence.Sequence, snap world.Snapshot) *detection.Report {
	if !seq.Terminal() {
		return nil
	}
	delete(t.live, bp.Name())
	state := seq.State()
	metrics.RecordTermination(bp.Name(), state.String())

	switch state {
	case sequence.StateExpired:
		e.stats.Expired++
		return nil
	case sequence.StateCancelled:
		e.stats.Cancelled++
		return nil
	}
	e.stats.Finished++

	o := seq.Outcome()
	if !o.Flagged {
		return nil
	}
	r := bp.Report(o, snap)
	if r == nil {
		return nil
	}
	e.stats.Reports++
	metrics.RecordReport(r.Detection, string(r.Level), r.Severity)
	logging.Info().
		Str("report_id", r.ID).
		Str("entity", r.EntityID.String()).
		Str("entity_name", r.EntityName).
		Str("detection", r.Detection).
		Str("level", string(r.Level)).
		Float64("severity", r.Severity).
		Msg("detection report")

	if e.sink != nil {
		e.sink.Submit(ctx, r)
	}
	return r
}
