// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package capture

import (
	"fmt"
	"math"

	"github.com/tomtom215/guardian/internal/world"
)

// Capture names.
const (
	ControlName  = "ControlCapture"
	AltitudeName = "AltitudeCapture"
	EffectName   = "EffectCapture"
	MaterialName = "MaterialCapture"
	PingName     = "PingCapture"
	TickName     = "TickCapture"
)

// Slot keys written by the built-in captures.
var (
	ControlState              = Key(ControlName, "state")
	ControlTicks              = Key(ControlName, "ticks")
	ControlExpectedHorizontal = Key(ControlName, "expected_horizontal")
	ControlExpectedVertical   = Key(ControlName, "expected_vertical")
	ControlContradictions     = Key(ControlName, "contradictions")
	ControlContradictionKinds = Key(ControlName, "contradiction_kinds")

	AltitudeRelative = Key(AltitudeName, "relative")
	AltitudeMax      = Key(AltitudeName, "max")
	AltitudeAirborne = Key(AltitudeName, "airborne")

	EffectHorizontal = Key(EffectName, "horizontal")
	EffectVertical   = Key(EffectName, "vertical")
	EffectActive     = Key(EffectName, "active")

	MaterialCurrent  = Key(MaterialName, "class")
	MaterialClasses  = Key(MaterialName, "classes")
	MaterialModifier = Key(MaterialName, "modifier")
	MaterialSum      = Key(MaterialName, "modifier_sum")

	PingLatest  = Key(PingName, "latest_ms")
	PingMax     = Key(PingName, "max_ms")
	PingMean    = Key(PingName, "mean_ms")
	PingSum     = Key(PingName, "sum_ms")
	PingSamples = Key(PingName, "samples")

	TickSamples = Key(TickName, "samples")
	TickFirst   = Key(TickName, "first")
	TickLast    = Key(TickName, "last")
)

// AirborneThreshold is the relative altitude above which an entity counts
// as airborne.
const AirborneThreshold = 0.1

func addFloat(c *Container, key SlotKey, delta float64) error {
	_, err := c.Transform(key, Float(0), func(v Value) Value {
		f, _ := v.AsFloat()
		return Float(f + delta)
	})
	return err
}

func maxFloat(c *Container, key SlotKey, x float64) error {
	_, err := c.Transform(key, Float(x), func(v Value) Value {
		f, _ := v.AsFloat()
		return Float(math.Max(f, x))
	})
	return err
}

func addInt(c *Container, key SlotKey, delta int64) error {
	_, err := c.Transform(key, Int(0), func(v Value) Value {
		n, _ := v.AsInt()
		return Int(n + delta)
	})
	return err
}

func initSlots(c *Container, slots map[SlotKey]Value) error {
	for k, v := range slots {
		if _, err := c.SetOnce(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Mean divides an accumulated float slot by the tick sample count.
func Mean(c *Container, sum SlotKey) (float64, error) {
	total, err := c.Float(sum)
	if err != nil {
		return 0, err
	}
	n, err := c.Int(TickSamples)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: %w", TickSamples, ErrSlotMissing)
	}
	return total / float64(n), nil
}

// States returns every control state active in ctrl. Walking is reported
// when no other locomotion state applies.
func States(ctrl world.Control) []string {
	var out []string
	if ctrl.Has(world.ControlFlying) {
		out = append(out, StateFlying)
	}
	if ctrl.Has(world.ControlSprinting) {
		out = append(out, StateSprinting)
	}
	if ctrl.Has(world.ControlSneaking) {
		out = append(out, StateSneaking)
	}
	if ctrl.Has(world.ControlSwimming) {
		out = append(out, StateSwimming)
	}
	if ctrl.Has(world.ControlGliding) {
		out = append(out, StateGliding)
	}
	if ctrl.Has(world.ControlInVehicle) {
		out = append(out, StateVehicle)
	}
	if ctrl.Has(world.ControlSitting) {
		out = append(out, StateSitting)
	}
	if len(out) == 0 {
		out = append(out, StateWalking)
	}
	return out
}

// PrimaryState picks the single state whose coefficients govern movement.
func PrimaryState(ctrl world.Control) string {
	switch {
	case ctrl.Any(world.ControlInVehicle | world.ControlSitting):
		return StateVehicle
	case ctrl.Has(world.ControlGliding):
		return StateGliding
	case ctrl.Has(world.ControlFlying):
		return StateFlying
	case ctrl.Has(world.ControlSwimming):
		return StateSwimming
	case ctrl.Has(world.ControlSprinting):
		return StateSprinting
	case ctrl.Has(world.ControlSneaking):
		return StateSneaking
	default:
		return StateWalking
	}
}

// ControlCapture tracks control state and accumulates expected
// displacement from per-state coefficients.
type ControlCapture struct {
	coeff Coefficients
}

// NewControlCapture creates a control capture.
func NewControlCapture(coeff Coefficients) *ControlCapture {
	return &ControlCapture{coeff: coeff}
}

func (*ControlCapture) Name() string { return ControlName }

func (*ControlCapture) Slots() []SlotSpec {
	return []SlotSpec{
		{ControlState, KindSet},
		{ControlTicks, KindHistogram},
		{ControlExpectedHorizontal, KindFloat},
		{ControlExpectedVertical, KindFloat},
		{ControlContradictions, KindInt},
		{ControlContradictionKinds, KindHistogram},
	}
}

func (cc *ControlCapture) Apply(s Subject, c *Container) error {
	if err := initSlots(c, map[SlotKey]Value{
		ControlTicks:              HistogramValue(NewHistogram()),
		ControlExpectedHorizontal: Float(0),
		ControlExpectedVertical:   Float(0),
		ControlContradictions:     Int(0),
		ControlContradictionKinds: HistogramValue(NewHistogram()),
	}); err != nil {
		return err
	}

	states := States(s.Snapshot.Control)
	if err := c.Set(ControlState, SetValue(NewStringSet(states...))); err != nil {
		return err
	}
	if _, err := c.Transform(ControlTicks, HistogramValue(NewHistogram()), func(v Value) Value {
		h, _ := v.AsHistogram()
		for _, st := range states {
			h = h.Inc(st)
		}
		return HistogramValue(h)
	}); err != nil {
		return err
	}

	if bad := Contradictions(s.Snapshot.Control); len(bad) > 0 {
		if err := addInt(c, ControlContradictions, 1); err != nil {
			return err
		}
		if _, err := c.Transform(ControlContradictionKinds, HistogramValue(NewHistogram()), func(v Value) Value {
			h, _ := v.AsHistogram()
			for _, b := range bad {
				h = h.Inc(b)
			}
			return HistogramValue(h)
		}); err != nil {
			return err
		}
	}

	primary := PrimaryState(s.Snapshot.Control)
	if err := addFloat(c, ControlExpectedHorizontal, cc.coeff.horizontal(primary)); err != nil {
		return err
	}
	return addFloat(c, ControlExpectedVertical, cc.coeff.vertical(primary))
}

// Contradictions lists the mutually exclusive control flags set in ctrl.
func Contradictions(ctrl world.Control) []string {
	var out []string
	if ctrl.Has(world.ControlSprinting | world.ControlSneaking) {
		out = append(out, "sprinting+sneaking")
	}
	if ctrl.Has(world.ControlSprinting) && ctrl.Any(world.ControlSitting|world.ControlInVehicle) {
		out = append(out, "sprinting+vehicle")
	}
	if ctrl.Has(world.ControlFlying) && !ctrl.Has(world.ControlAllowFlight) {
		out = append(out, "flying+no_permission")
	}
	if ctrl.Has(world.ControlGliding | world.ControlSwimming) {
		out = append(out, "gliding+swimming")
	}
	if ctrl.Has(world.ControlOnGround | world.ControlGliding) {
		out = append(out, "on_ground+gliding")
	}
	return out
}

// AltitudeCapture measures height above the nearest solid block below the
// entity.
type AltitudeCapture struct{}

// NewAltitudeCapture creates an altitude capture.
func NewAltitudeCapture() *AltitudeCapture { return &AltitudeCapture{} }

func (*AltitudeCapture) Name() string { return AltitudeName }

func (*AltitudeCapture) Slots() []SlotSpec {
	return []SlotSpec{
		{AltitudeRelative, KindFloat},
		{AltitudeMax, KindFloat},
		{AltitudeAirborne, KindInt},
	}
}

func (*AltitudeCapture) Apply(s Subject, c *Container) error {
	alt := RelativeAltitude(s.Oracle, s.Snapshot.Location)
	if err := initSlots(c, map[SlotKey]Value{
		AltitudeMax:      Float(alt),
		AltitudeAirborne: Int(0),
	}); err != nil {
		return err
	}
	if err := c.Set(AltitudeRelative, Float(alt)); err != nil {
		return err
	}
	if err := maxFloat(c, AltitudeMax, alt); err != nil {
		return err
	}
	if alt > AirborneThreshold {
		return addInt(c, AltitudeAirborne, 1)
	}
	return nil
}

// RelativeAltitude casts a ray straight down in 1-block steps and returns
// the distance from loc to the top of the first solid block. Without any
// support, below the world minimum or at a non-finite height, the full world
// height is returned. The ray never starts above the world maximum.
func RelativeAltitude(o world.Oracle, loc world.Location) float64 {
	minY, maxY := o.Bounds(loc.World)
	depth := maxY - minY
	if math.IsNaN(loc.Pos.Y) || math.IsInf(loc.Pos.Y, 0) || loc.Pos.Y < minY {
		return depth
	}
	probe := loc.Pos
	for y := math.Min(math.Floor(loc.Pos.Y), maxY-1); y >= minY; y-- {
		probe.Y = y + 0.5
		if o.MaterialAt(loc.World, probe).Class == world.MaterialSolid {
			return math.Max(0, loc.Pos.Y-(y+1))
		}
	}
	return depth
}

// EffectCapture accumulates effect-driven movement factors.
type EffectCapture struct {
	coeff Coefficients
}

// NewEffectCapture creates an effect capture.
func NewEffectCapture(coeff Coefficients) *EffectCapture {
	return &EffectCapture{coeff: coeff}
}

func (*EffectCapture) Name() string { return EffectName }

func (*EffectCapture) Slots() []SlotSpec {
	return []SlotSpec{
		{EffectHorizontal, KindFloat},
		{EffectVertical, KindFloat},
		{EffectActive, KindSet},
	}
}

func (ec *EffectCapture) Apply(s Subject, c *Container) error {
	if err := initSlots(c, map[SlotKey]Value{
		EffectHorizontal: Float(0),
		EffectVertical:   Float(0),
		EffectActive:     SetValue(NewStringSet()),
	}); err != nil {
		return err
	}

	var horizontal, vertical float64
	for _, e := range s.Snapshot.Effects {
		scale := float64(e.Amplifier + 1)
		horizontal += ec.coeff.Effects[e.Type] * scale
		vertical += ec.coeff.VerticalEffects[e.Type] * scale
		if _, err := c.Transform(EffectActive, SetValue(NewStringSet()), func(v Value) Value {
			set, _ := v.AsSet()
			return SetValue(set.With(e.Type))
		}); err != nil {
			return err
		}
	}
	if err := addFloat(c, EffectHorizontal, horizontal); err != nil {
		return err
	}
	return addFloat(c, EffectVertical, vertical)
}

// MaterialCapture classifies what surrounds the entity.
type MaterialCapture struct {
	coeff Coefficients
}

// NewMaterialCapture creates a material capture.
func NewMaterialCapture(coeff Coefficients) *MaterialCapture {
	return &MaterialCapture{coeff: coeff}
}

func (*MaterialCapture) Name() string { return MaterialName }

func (*MaterialCapture) Slots() []SlotSpec {
	return []SlotSpec{
		{MaterialCurrent, KindSet},
		{MaterialClasses, KindHistogram},
		{MaterialModifier, KindFloat},
		{MaterialSum, KindFloat},
	}
}

const headHeight = 1.6

// Classify returns the governing material around loc and its class.
// Airborne wins over liquid, which wins over solid ground.
func Classify(o world.Oracle, loc world.Location) (world.Material, world.MaterialClass) {
	feet := o.MaterialAt(loc.World, loc.Pos)
	head := o.MaterialAt(loc.World, loc.Pos.Add(world.Vec3{Y: headHeight}))
	below := o.MaterialAt(loc.World, loc.Pos.Add(world.Vec3{Y: -0.5}))

	switch {
	case feet.Class == world.MaterialGas && below.Class == world.MaterialGas:
		return below, world.MaterialGas
	case feet.Class == world.MaterialLiquid:
		return feet, world.MaterialLiquid
	case head.Class == world.MaterialLiquid:
		return head, world.MaterialLiquid
	case below.Class == world.MaterialSolid:
		return below, world.MaterialSolid
	default:
		return feet, world.MaterialSolid
	}
}

func (mc *MaterialCapture) Apply(s Subject, c *Container) error {
	if err := initSlots(c, map[SlotKey]Value{
		MaterialClasses: HistogramValue(NewHistogram()),
		MaterialSum:     Float(0),
	}); err != nil {
		return err
	}

	mat, class := Classify(s.Oracle, s.Snapshot.Location)
	modifier := mc.coeff.material(mat.Name, class.String())

	if err := c.Set(MaterialCurrent, SetValue(NewStringSet(class.String()))); err != nil {
		return err
	}
	if err := c.Set(MaterialModifier, Float(modifier)); err != nil {
		return err
	}
	if _, err := c.Transform(MaterialClasses, HistogramValue(NewHistogram()), func(v Value) Value {
		h, _ := v.AsHistogram()
		return HistogramValue(h.Inc(class.String()))
	}); err != nil {
		return err
	}
	return addFloat(c, MaterialSum, modifier)
}

// PingCapture records connection latency.
type PingCapture struct{}

// NewPingCapture creates a ping capture.
func NewPingCapture() *PingCapture { return &PingCapture{} }

func (*PingCapture) Name() string { return PingName }

func (*PingCapture) Slots() []SlotSpec {
	return []SlotSpec{
		{PingLatest, KindFloat},
		{PingMax, KindFloat},
		{PingMean, KindFloat},
		{PingSum, KindFloat},
		{PingSamples, KindInt},
	}
}

func (*PingCapture) Apply(s Subject, c *Container) error {
	ms := float64(s.Snapshot.Ping.Microseconds()) / 1000
	if err := initSlots(c, map[SlotKey]Value{
		PingMax:     Float(ms),
		PingSum:     Float(0),
		PingSamples: Int(0),
	}); err != nil {
		return err
	}
	if err := c.Set(PingLatest, Float(ms)); err != nil {
		return err
	}
	if err := maxFloat(c, PingMax, ms); err != nil {
		return err
	}
	if err := addFloat(c, PingSum, ms); err != nil {
		return err
	}
	if err := addInt(c, PingSamples, 1); err != nil {
		return err
	}
	sum, err := c.Float(PingSum)
	if err != nil {
		return err
	}
	n, err := c.Int(PingSamples)
	if err != nil {
		return err
	}
	return c.Set(PingMean, Float(sum/float64(n)))
}

// TickCapture counts sampled ticks.
type TickCapture struct{}

// NewTickCapture creates a tick capture.
func NewTickCapture() *TickCapture { return &TickCapture{} }

func (*TickCapture) Name() string { return TickName }

func (*TickCapture) Slots() []SlotSpec {
	return []SlotSpec{
		{TickSamples, KindInt},
		{TickFirst, KindTicks},
		{TickLast, KindTicks},
	}
}

func (*TickCapture) Apply(s Subject, c *Container) error {
	if err := initSlots(c, map[SlotKey]Value{
		TickSamples: Int(0),
		TickFirst:   Ticks(s.Tick),
	}); err != nil {
		return err
	}
	if err := c.Set(TickLast, Ticks(s.Tick)); err != nil {
		return err
	}
	return addInt(c, TickSamples, 1)
}

// Standard returns the full set of built-in captures in their canonical
// order.
func Standard(coeff Coefficients) []Capture {
	return []Capture{
		NewTickCapture(),
		NewControlCapture(coeff),
		NewAltitudeCapture(),
		NewEffectCapture(coeff),
		NewMaterialCapture(coeff),
		NewPingCapture(),
	}
}
