// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/validation"
	"github.com/tomtom215/guardian/internal/world"
)

// KindBlock is a host event that only carries block changes.
const KindBlock = "block"

// BlockChange overrides the material of one block. An empty Material
// clears the override.
type BlockChange struct {
	World    string `json:"world"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Material string `json:"material,omitempty"`
	Class    string `json:"class,omitempty"`
}

// HostEvent is the wire format published by the game server.
type HostEvent struct {
	Kind     string         `json:"kind" validate:"required"`
	EntityID string         `json:"entity_id" validate:"omitempty,uuid"`
	Name     string         `json:"name,omitempty"`
	Tick     int64          `json:"tick" validate:"min=0"`
	World    string         `json:"world,omitempty"`
	Position *world.Vec3    `json:"position,omitempty"`
	Velocity world.Vec3     `json:"velocity"`
	Control  []string       `json:"control,omitempty"`
	Effects  []world.Effect `json:"effects,omitempty"`
	PingMs   int64          `json:"ping_ms" validate:"min=0"`
	Blocks   []BlockChange  `json:"blocks,omitempty"`
	SentAt   time.Time      `json:"sent_at"`
}

// Decode parses and validates a payload.
func Decode(payload []byte) (*HostEvent, error) {
	var ev HostEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal host event: %w", err)
	}
	if err := validation.ValidateStruct(&ev); err != nil {
		return nil, fmt.Errorf("invalid host event: %w", err)
	}
	if ev.Kind != KindBlock && ev.EntityID == "" {
		return nil, fmt.Errorf("invalid host event: %s event without entity_id", ev.Kind)
	}
	if ev.Position != nil && !inRange(*ev.Position) {
		return nil, fmt.Errorf("invalid host event: position %v out of range", *ev.Position)
	}
	if !inRange(ev.Velocity) {
		return nil, fmt.Errorf("invalid host event: velocity %v out of range", ev.Velocity)
	}
	return &ev, nil
}

// MaxCoordinate bounds every position and velocity component accepted from
// the host.
const MaxCoordinate = 3e7

func inRange(v world.Vec3) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.Abs(c) > MaxCoordinate {
			return false
		}
	}
	return true
}

// Encode serializes ev.
func Encode(ev *HostEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Snapshot converts ev into a mirror snapshot. prev is the entity's last
// snapshot and supplies the position when ev carries none.
func (ev *HostEvent) Snapshot(id world.EntityID, prev world.Snapshot, now time.Time) (world.Snapshot, error) {
	control, err := world.ParseControl(ev.Control)
	if err != nil {
		return world.Snapshot{}, err
	}
	snap := world.Snapshot{
		ID:        id,
		Name:      ev.Name,
		Location:  prev.Location,
		Velocity:  ev.Velocity,
		Control:   control,
		Effects:   ev.Effects,
		Ping:      time.Duration(ev.PingMs) * time.Millisecond,
		UpdatedAt: now,
	}
	if snap.Name == "" {
		snap.Name = prev.Name
	}
	if ev.World != "" {
		snap.Location.World = ev.World
	}
	if ev.Position != nil {
		snap.Location.Pos = *ev.Position
	}
	return snap, nil
}

// Event maps ev onto an engine event. Tick and time are restamped by the
// engine.
func (ev *HostEvent) Event(id world.EntityID, loc world.Location) (sequence.Event, error) {
	kind, err := sequence.ParseEventKind(ev.Kind)
	if err != nil {
		return sequence.Event{}, err
	}
	if kind == sequence.EventTick {
		return sequence.Event{}, fmt.Errorf("tick events are generated internally")
	}
	out := sequence.Event{Kind: kind, Entity: id, Tick: ev.Tick}
	if ev.Position != nil {
		l := loc
		out.Location = &l
	}
	return out, nil
}

// Apply writes the block changes to m.
func (ev *HostEvent) Apply(m *world.Mirror) error {
	for _, b := range ev.Blocks {
		pos := world.BlockPos{X: b.X, Y: b.Y, Z: b.Z}
		if b.Material == "" {
			m.ClearBlock(b.World, pos)
			continue
		}
		class, err := world.ParseMaterialClass(b.Class)
		if err != nil {
			return fmt.Errorf("block %s %v: %w", b.World, pos, err)
		}
		m.SetBlock(b.World, pos, world.Material{Name: b.Material, Class: class})
	}
	return nil
}
