// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package sequence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/world"
)

// Owner is the slot prefix reserved for sequence baseline slots.
const Owner = "Sequence"

// Baseline slots written on the first step.
var (
	OriginSlot     = capture.Key(Owner, "origin")
	OriginTickSlot = capture.Key(Owner, "origin_tick")
)

var (
	// ErrEmptyPlan is returned by New when no actions are given.
	ErrEmptyPlan = errors.New("sequence has no actions")

	// ErrTriggerMismatch cancels a sequence whose first observer saw the
	// wrong event kind.
	ErrTriggerMismatch = errors.New("first observer trigger mismatch")

	// ErrExpired is wrapped when an action's expire window passes.
	ErrExpired = errors.New("action expired")

	// ErrTerminal is returned when stepping a sequence that already ended.
	ErrTerminal = errors.New("sequence already terminal")

	// ErrAborted is wrapped when the controller cancels a sequence from
	// outside, e.g. on teleport.
	ErrAborted = errors.New("sequence aborted")
)

// Sequence is one in-flight detection for one entity. It is not safe for
// concurrent use.
type Sequence struct {
	id        uuid.UUID
	entity    world.EntityID
	detection string

	queue    []Action
	total    int
	registry *capture.Registry
	state    State
	err      error

	steps     int
	startTick int64
	lastTick  int64
	endTick   int64
	startTime time.Time
	lastTime  time.Time
	endTime   time.Time

	origin world.Location
	last   world.Location

	sampled     bool
	lastSampled int64

	found findings
}

// New builds an INACTIVE sequence. The capture schema and every action are
// validated here so a malformed blueprint fails before it ever steps.
func New(entity world.EntityID, detection string, actions []Action, captures []capture.Capture) (*Sequence, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("%s: %w", detection, ErrEmptyPlan)
	}
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", detection, err)
		}
	}

	reg, err := capture.NewRegistry(captures, Owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", detection, err)
	}
	if err := reg.Container().Declare(OriginSlot, capture.KindPosition); err != nil {
		return nil, err
	}
	if err := reg.Container().Declare(OriginTickSlot, capture.KindTicks); err != nil {
		return nil, err
	}

	return &Sequence{
		id:        uuid.New(),
		entity:    entity,
		detection: detection,
		queue:     append([]Action(nil), actions...),
		total:     len(actions),
		registry:  reg,
	}, nil
}

func (s *Sequence) ID() uuid.UUID                 { return s.id }
func (s *Sequence) Entity() world.EntityID        { return s.entity }
func (s *Sequence) Detection() string             { return s.detection }
func (s *Sequence) State() State                  { return s.state }
func (s *Sequence) Terminal() bool                { return s.state.Terminal() }
func (s *Sequence) Steps() int                    { return s.steps }
func (s *Sequence) Remaining() int                { return len(s.queue) }
func (s *Sequence) Container() *capture.Container { return s.registry.Container() }

// Err returns the reason a sequence was cancelled or expired.
func (s *Sequence) Err() error { return s.err }

// Head returns the next action to be released.
func (s *Sequence) Head() (Action, bool) {
	if len(s.queue) == 0 {
		return Action{}, false
	}
	return s.queue[0], true
}

func location(ev Event, snap world.Snapshot) world.Location {
	if ev.Location != nil {
		return *ev.Location
	}
	return snap.Location
}

func (s *Sequence) terminate(state State, err error, ev Event) {
	s.state = state
	s.err = err
	s.endTick = ev.Tick
	s.endTime = ev.At
}

// Cancel aborts a live sequence. Terminal sequences are left untouched.
func (s *Sequence) Cancel(ev Event, reason string) {
	if s.state.Terminal() {
		return
	}
	s.terminate(StateCancelled, fmt.Errorf("%w: %s", ErrAborted, reason), ev)
}

// Step offers one event to the head action.
func (s *Sequence) Step(ev Event, snap world.Snapshot) (StepResult, error) {
	if s.state.Terminal() {
		return s.terminalResult(), ErrTerminal
	}
	if len(s.queue) == 0 {
		s.terminate(StateFinished, nil, ev)
		return StepFinished, nil
	}

	head := s.queue[0]
	first := s.steps == 0
	now := ev.Tick

	if !first && head.Expire > 0 && now > s.lastTick+head.Expire {
		err := fmt.Errorf("%w: %s after %d ticks (limit %d)", ErrExpired, head.Name, now-s.lastTick, head.Expire)
		s.terminate(StateExpired, err, ev)
		return StepExpired, err
	}

	if head.Trigger != ev.Kind {
		if first && head.Kind == ActionObserver {
			err := fmt.Errorf("%w: %s wants %s, got %s", ErrTriggerMismatch, head.Name, head.Trigger, ev.Kind)
			s.terminate(StateCancelled, err, ev)
			return StepCancelled, err
		}
		return StepSkipped, nil
	}

	if !first && now < s.lastTick+head.delay() {
		return StepTooEarly, nil
	}

	loc := location(ev, snap)
	if first {
		if err := s.baseline(ev, loc); err != nil {
			s.terminate(StateCancelled, err, ev)
			return StepCancelled, err
		}
	}

	eval := &Evaluation{
		Container:    s.registry.Container(),
		Snapshot:     snap,
		Event:        ev,
		Action:       head,
		Step:         s.steps,
		Tick:         now,
		ElapsedTicks: now - s.startTick,
		Elapsed:      ev.At.Sub(s.startTime),
		StepTicks:    now - s.lastTick,
		out:          &findings{},
	}
	if head.Condition != nil {
		if err := head.Condition(eval); err != nil {
			s.terminate(StateCancelled, err, ev)
			return StepCancelled, err
		}
	}

	s.found.merge(eval.out)
	s.queue = s.queue[1:]
	s.steps++
	s.lastTick = now
	s.lastTime = ev.At
	s.last = loc
	s.state = StateActive

	if len(s.queue) == 0 {
		s.terminate(StateFinished, nil, ev)
		return StepFinished, nil
	}
	return StepAdvanced, nil
}

func (s *Sequence) baseline(ev Event, loc world.Location) error {
	s.startTick = ev.Tick
	s.lastTick = ev.Tick
	s.startTime = ev.At
	s.lastTime = ev.At
	s.origin = loc
	s.last = loc

	c := s.registry.Container()
	if _, err := c.SetOnce(OriginSlot, capture.Position(loc.Pos)); err != nil {
		return err
	}
	_, err := c.SetOnce(OriginTickSlot, capture.Ticks(ev.Tick))
	return err
}

func (s *Sequence) terminalResult() StepResult {
	switch s.state {
	case StateExpired:
		return StepExpired
	case StateCancelled:
		return StepCancelled
	default:
		return StepFinished
	}
}

// Sample runs every capture once for subject.Tick. It is a no-op unless the
// sequence is ACTIVE and the tick has not been sampled yet. A capture
// failure cancels the sequence.
func (s *Sequence) Sample(subject capture.Subject) error {
	if s.state != StateActive {
		return nil
	}
	if s.sampled && subject.Tick <= s.lastSampled {
		return nil
	}
	s.sampled = true
	s.lastSampled = subject.Tick
	s.last = subject.Snapshot.Location

	if err := s.registry.Apply(subject); err != nil {
		err = fmt.Errorf("capture: %w", err)
		s.terminate(StateCancelled, err, Event{Tick: subject.Tick, At: s.lastTime})
		return err
	}
	return nil
}

// Outcome is a read-only summary of a sequence, used for reports and
// introspection.
type Outcome struct {
	ID        uuid.UUID
	Entity    world.EntityID
	Detection string
	State     State
	Reason    string

	Flagged  bool
	Score    float64
	Evidence []string
	Metrics  map[string]float64

	Steps     int
	Remaining int
	Next      string

	StartTick int64
	EndTick   int64
	StartTime time.Time
	EndTime   time.Time
	Origin    world.Location
	End       world.Location

	Captures map[string]float64
}

// Outcome snapshots the sequence.
func (s *Sequence) Outcome() Outcome {
	o := Outcome{
		ID:        s.id,
		Entity:    s.entity,
		Detection: s.detection,
		State:     s.state,
		Flagged:   s.found.flagged,
		Score:     s.found.score,
		Evidence:  append([]string(nil), s.found.evidence...),
		Metrics:   make(map[string]float64, len(s.found.metrics)),
		Steps:     s.steps,
		Remaining: len(s.queue),
		StartTick: s.startTick,
		EndTick:   s.lastTick,
		StartTime: s.startTime,
		EndTime:   s.lastTime,
		Origin:    s.origin,
		End:       s.last,
		Captures:  s.registry.Container().Floats(),
	}
	for k, v := range s.found.metrics {
		o.Metrics[k] = v
	}
	if s.err != nil {
		o.Reason = s.err.Error()
	}
	if s.state.Terminal() {
		o.EndTick = s.endTick
		o.EndTime = s.endTime
	}
	if head, ok := s.Head(); ok {
		o.Next = head.Name
	}
	return o
}
