// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package sequence

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned by Action.Validate.
var ErrInvalidAction = errors.New("invalid action")

// ActionKind selects how an action is released.
type ActionKind uint8

const (
	ActionObserver ActionKind = iota + 1
	ActionAfter
	ActionSchedule
)

func (k ActionKind) String() string {
	switch k {
	case ActionObserver:
		return "observer"
	case ActionAfter:
		return "after"
	case ActionSchedule:
		return "schedule"
	default:
		return "unknown"
	}
}

// Action is one gated step of a sequence. Delay and Expire are in ticks
// relative to the previous step; Expire <= 0 means the step never expires.
type Action struct {
	Kind      ActionKind
	Name      string
	Trigger   EventKind
	Period    int64
	Delay     int64
	Expire    int64
	Condition Condition
}

// Observe builds an action that passes on the first matching event.
func Observe(name string, trigger EventKind, cond Condition) Action {
	return Action{
		Kind:      ActionObserver,
		Name:      name,
		Trigger:   trigger,
		Condition: cond,
	}
}

// After builds an action released by trigger once delay ticks have elapsed.
func After(name string, trigger EventKind, delay, expire int64, cond Condition) Action {
	return Action{
		Kind:      ActionAfter,
		Name:      name,
		Trigger:   trigger,
		Delay:     delay,
		Expire:    expire,
		Condition: cond,
	}
}

// Every builds a schedule action released by the periodic tick pulse once
// period ticks have elapsed since the previous step.
func Every(name string, period, expire int64, cond Condition) Action {
	return Action{
		Kind:      ActionSchedule,
		Name:      name,
		Trigger:   EventTick,
		Period:    period,
		Delay:     period,
		Expire:    expire,
		Condition: cond,
	}
}

// Validate rejects malformed actions.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionObserver, ActionAfter:
		if a.Trigger == EventUnknown {
			return fmt.Errorf("%w: %s %q has no trigger", ErrInvalidAction, a.Kind, a.Name)
		}
	case ActionSchedule:
		if a.Period <= 0 {
			return fmt.Errorf("%w: schedule %q needs a positive period", ErrInvalidAction, a.Name)
		}
		if a.Trigger != EventTick {
			return fmt.Errorf("%w: schedule %q must be driven by tick events", ErrInvalidAction, a.Name)
		}
	default:
		return fmt.Errorf("%w: %q has unknown kind %d", ErrInvalidAction, a.Name, a.Kind)
	}
	if a.Delay < 0 {
		return fmt.Errorf("%w: %q has negative delay", ErrInvalidAction, a.Name)
	}
	if a.Expire > 0 && a.Expire < a.Delay {
		return fmt.Errorf("%w: %q expires (%d) before its delay (%d)", ErrInvalidAction, a.Name, a.Expire, a.Delay)
	}
	return nil
}

// delay returns the minimum ticks since the previous step.
func (a Action) delay() int64 {
	if a.Kind == ActionSchedule && a.Delay < a.Period {
		return a.Period
	}
	return a.Delay
}
