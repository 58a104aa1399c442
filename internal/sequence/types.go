// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package sequence

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/guardian/internal/world"
)

// EventKind identifies what happened to a tracked entity.
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventMove
	EventTick
	EventJoin
	EventLeave
	EventTeleport
	EventRespawn
	EventVehicle
)

var eventKindNames = map[EventKind]string{
	EventMove:     "move",
	EventTick:     "tick",
	EventJoin:     "join",
	EventLeave:    "leave",
	EventTeleport: "teleport",
	EventRespawn:  "respawn",
	EventVehicle:  "vehicle",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEventKind parses a lower-case event kind name.
func ParseEventKind(s string) (EventKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range eventKindNames {
		if name == s {
			return k, nil
		}
	}
	return EventUnknown, fmt.Errorf("unknown event kind %q", s)
}

// EventKinds returns all known kinds in declaration order.
func EventKinds() []EventKind {
	return []EventKind{EventMove, EventTick, EventJoin, EventLeave, EventTeleport, EventRespawn, EventVehicle}
}

// Event is a host-delivered entity event or a synthetic tick pulse.
type Event struct {
	Kind   EventKind
	Entity world.EntityID
	Tick   int64
	At     time.Time

	// Location is set when the event carries a fresh position.
	Location *world.Location
}

// State is the lifecycle state of a sequence.
type State uint8

const (
	StateInactive State = iota
	StateActive
	StateFinished
	StateExpired
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	case StateExpired:
		return "expired"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is FINISHED, EXPIRED or CANCELLED.
func (s State) Terminal() bool {
	return s >= StateFinished
}

// StepResult is the outcome of a single Step call.
type StepResult uint8

const (
	// StepAdvanced means the head action passed and more actions remain.
	StepAdvanced StepResult = iota
	// StepSkipped means the event did not match the head action's trigger.
	StepSkipped
	// StepTooEarly means the head action's delay has not elapsed.
	StepTooEarly
	StepFinished
	StepExpired
	StepCancelled
)

func (r StepResult) String() string {
	switch r {
	case StepAdvanced:
		return "advanced"
	case StepSkipped:
		return "skipped"
	case StepTooEarly:
		return "too_early"
	case StepFinished:
		return "finished"
	case StepExpired:
		return "expired"
	case StepCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
