// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package world

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityID identifies a tracked entity (a player) across its session.
type EntityID = uuid.UUID

// ParseEntityID parses the textual form of an entity ID.
func ParseEntityID(s string) (EntityID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid entity id %q: %w", s, err)
	}
	return id, nil
}

// Vec3 is a block-space position or displacement.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HorizontalLen returns the length of v projected onto the XZ plane.
func (v Vec3) HorizontalLen() float64 {
	return math.Hypot(v.X, v.Z)
}

// Block returns the integer block coordinates containing v.
func (v Vec3) Block() BlockPos {
	return BlockPos{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}

// BlockPos is an integer block coordinate.
type BlockPos struct {
	X, Y, Z int
}

// Location is a position inside a named world.
type Location struct {
	World string `json:"world"`
	Pos   Vec3   `json:"pos"`
}

// Control is a bit set of the movement-related flags the host reports for an
// entity on a given tick.
type Control uint16

const (
	ControlFlying Control = 1 << iota
	ControlSprinting
	ControlSneaking
	ControlSitting
	ControlInVehicle
	ControlGliding
	ControlSwimming
	ControlOnGround
	ControlAllowFlight
)

var controlNames = []struct {
	flag Control
	name string
}{
	{ControlFlying, "flying"},
	{ControlSprinting, "sprinting"},
	{ControlSneaking, "sneaking"},
	{ControlSitting, "sitting"},
	{ControlInVehicle, "in_vehicle"},
	{ControlGliding, "gliding"},
	{ControlSwimming, "swimming"},
	{ControlOnGround, "on_ground"},
	{ControlAllowFlight, "allow_flight"},
}

// Has reports whether every flag in f is set.
func (c Control) Has(f Control) bool {
	return c&f == f
}

// Any reports whether at least one flag in f is set.
func (c Control) Any(f Control) bool {
	return c&f != 0
}

// Names returns the set flag names in declaration order.
func (c Control) Names() []string {
	names := make([]string, 0, 4)
	for _, cn := range controlNames {
		if c&cn.flag != 0 {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Control) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}

// ParseControl converts host flag names to a Control set.
// Unknown names are returned as an error so wire format drift is visible.
func ParseControl(names []string) (Control, error) {
	var c Control
	for _, n := range names {
		found := false
		for _, cn := range controlNames {
			if strings.EqualFold(n, cn.name) {
				c |= cn.flag
				found = true
				break
			}
		}
		if !found {
			return c, fmt.Errorf("unknown control flag %q", n)
		}
	}
	return c, nil
}

// Effect is an active status effect. Amplifier is zero-based, as reported by
// the host (amplifier 0 is level I).
type Effect struct {
	Type      string `json:"type"`
	Amplifier int    `json:"amplifier"`
}

// MaterialClass is the coarse physical class of a block.
type MaterialClass uint8

const (
	MaterialGas MaterialClass = iota
	MaterialLiquid
	MaterialSolid
)

func (m MaterialClass) String() string {
	switch m {
	case MaterialGas:
		return "gas"
	case MaterialLiquid:
		return "liquid"
	case MaterialSolid:
		return "solid"
	default:
		return "unknown"
	}
}

// ParseMaterialClass parses the textual class name.
func ParseMaterialClass(s string) (MaterialClass, error) {
	switch strings.ToLower(s) {
	case "gas", "air":
		return MaterialGas, nil
	case "liquid":
		return MaterialLiquid, nil
	case "solid":
		return MaterialSolid, nil
	default:
		return MaterialGas, fmt.Errorf("unknown material class %q", s)
	}
}

// Material is a named block material.
type Material struct {
	Name  string        `json:"name"`
	Class MaterialClass `json:"class"`
}

// Air is the material of empty space.
var Air = Material{Name: "air", Class: MaterialGas}

// Snapshot is the state of one entity as last reported by the host.
type Snapshot struct {
	ID        EntityID
	Name      string
	Location  Location
	Velocity  Vec3
	Control   Control
	Effects   []Effect
	Ping      time.Duration
	UpdatedAt time.Time
}

// EffectAmplifier returns the amplifier of the named effect and whether it is
// active.
func (s *Snapshot) EffectAmplifier(effectType string) (int, bool) {
	for _, e := range s.Effects {
		if strings.EqualFold(e.Type, effectType) {
			return e.Amplifier, true
		}
	}
	return 0, false
}
