// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package capture

import (
	"errors"
	"testing"

	"github.com/tomtom215/guardian/internal/world"
)

func TestContainer_SetFixesKind(t *testing.T) {
	c := NewContainer()
	key := Key("Test", "slot")

	if err := c.Set(key, Float(1.5)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(key, Float(2.5)); err != nil {
		t.Fatalf("Set() same kind error = %v", err)
	}

	err := c.Set(key, Int(3))
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("Set() different kind error = %v, want ErrKindMismatch", err)
	}
	var slotErr *SlotError
	if !errors.As(err, &slotErr) || slotErr.Key != key {
		t.Errorf("error should be a *SlotError for %s, got %v", key, err)
	}

	got, err := c.Float(key)
	if err != nil || got != 2.5 {
		t.Errorf("Float() = %v, %v; want 2.5, nil", got, err)
	}
}

func TestContainer_SetRejectsInvalid(t *testing.T) {
	c := NewContainer()
	if err := c.Set(Key("Test", "slot"), Value{}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Set(zero) error = %v, want ErrInvalidValue", err)
	}
}

func TestContainer_SetOnceIsIdempotent(t *testing.T) {
	c := NewContainer()
	key := Key("Test", "origin")

	wrote, err := c.SetOnce(key, Position(world.Vec3{X: 1}))
	if err != nil || !wrote {
		t.Fatalf("first SetOnce() = %v, %v; want true, nil", wrote, err)
	}
	for i := 0; i < 3; i++ {
		wrote, err = c.SetOnce(key, Position(world.Vec3{X: float64(i + 10)}))
		if err != nil || wrote {
			t.Fatalf("repeat SetOnce() = %v, %v; want false, nil", wrote, err)
		}
	}

	pos, err := c.Position(key)
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	if pos.X != 1 {
		t.Errorf("SetOnce overwrote slot: X = %v, want 1", pos.X)
	}

	if _, err := c.SetOnce(key, Float(0)); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("SetOnce() with wrong kind error = %v, want ErrKindMismatch", err)
	}
}

func TestContainer_TransformAppliesToDefault(t *testing.T) {
	double := func(v Value) Value {
		n, _ := v.AsInt()
		return Int(n * 2)
	}

	tests := []struct {
		name  string
		def   int64
		times int
		want  int64
	}{
		{"single application", 3, 1, 6},
		{"four applications", 1, 4, 16},
		{"zero default stays zero", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer()
			key := Key("Test", "counter")
			for i := 0; i < tt.times; i++ {
				if _, err := c.Transform(key, Int(tt.def), double); err != nil {
					t.Fatalf("Transform() error = %v", err)
				}
			}
			got, err := c.Int(key)
			if err != nil {
				t.Fatalf("Int() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("f^%d(%d) = %d, want %d", tt.times, tt.def, got, tt.want)
			}
		})
	}
}

func TestContainer_TransformKindChange(t *testing.T) {
	c := NewContainer()
	key := Key("Test", "slot")
	_, err := c.Transform(key, Float(0), func(Value) Value { return Int(1) })
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("Transform() changing kind error = %v, want ErrKindMismatch", err)
	}
	if c.Has(key) {
		t.Error("failed transform must not write the slot")
	}
}

func TestContainer_TransformDoesNotAlias(t *testing.T) {
	c := NewContainer()
	a, b := Key("Test", "a"), Key("Test", "b")

	if err := c.Set(a, HistogramValue(NewHistogram().Inc("x"))); err != nil {
		t.Fatal(err)
	}
	ha, _ := c.Histogram(a)
	if err := c.Set(b, HistogramValue(ha)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Transform(b, HistogramValue(NewHistogram()), func(v Value) Value {
		h, _ := v.AsHistogram()
		return HistogramValue(h.Inc("x"))
	}); err != nil {
		t.Fatal(err)
	}

	ha, _ = c.Histogram(a)
	hb, _ := c.Histogram(b)
	if ha.Count("x") != 1 || hb.Count("x") != 2 {
		t.Errorf("counts a=%d b=%d, want 1 and 2", ha.Count("x"), hb.Count("x"))
	}
}

func TestContainer_TypedReaders(t *testing.T) {
	c := NewContainer()
	if err := c.Set(Key("Test", "f"), Float(1)); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Float(Key("Test", "missing")); !errors.Is(err, ErrSlotMissing) {
		t.Errorf("Float(missing) error = %v, want ErrSlotMissing", err)
	}
	if _, err := c.Int(Key("Test", "f")); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Int(float slot) error = %v, want ErrKindMismatch", err)
	}
	if _, err := c.Ticks(Key("Test", "f")); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Ticks(float slot) error = %v, want ErrKindMismatch", err)
	}
	if _, err := c.StringSet(Key("Test", "missing")); !errors.Is(err, ErrSlotMissing) {
		t.Errorf("StringSet(missing) error = %v, want ErrSlotMissing", err)
	}
}

func TestContainer_DeclareFixesKindBeforeWrite(t *testing.T) {
	c := NewContainer()
	key := Key("Test", "slot")
	if err := c.Declare(key, KindTicks); err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	if err := c.Set(key, Int(1)); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Set() against declared kind error = %v, want ErrKindMismatch", err)
	}
	if err := c.Set(key, Ticks(1)); err != nil {
		t.Errorf("Set() with declared kind error = %v", err)
	}
	if c.Has(Key("Test", "other")) {
		t.Error("declaring a slot must not populate other slots")
	}
}

func TestContainer_Floats(t *testing.T) {
	c := NewContainer()
	_ = c.Set(Key("A", "f"), Float(1.5))
	_ = c.Set(Key("A", "i"), Int(2))
	_ = c.Set(Key("A", "t"), Ticks(3))
	_ = c.Set(Key("A", "s"), SetValue(NewStringSet("x")))

	got := c.Floats()
	want := map[string]float64{"A:f": 1.5, "A:i": 2, "A:t": 3}
	if len(got) != len(want) {
		t.Fatalf("Floats() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Floats()[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestHistogramAndSetAreImmutable(t *testing.T) {
	h := NewHistogram().Inc("a")
	h2 := h.Inc("a").Inc("b")
	if h.Count("a") != 1 || h.Total() != 1 {
		t.Errorf("original histogram mutated: %s", h)
	}
	if h2.Count("a") != 2 || h2.Total() != 3 {
		t.Errorf("derived histogram = %s, want a=2 total=3", h2)
	}
	if r := h2.Ratio("b"); r < 0.333 || r > 0.334 {
		t.Errorf("Ratio(b) = %v, want 1/3", r)
	}
	if NewHistogram().Ratio("x") != 0 {
		t.Error("empty histogram ratio should be 0")
	}

	s := NewStringSet("a")
	s2 := s.With("b")
	if s.Contains("b") || !s2.Contains("b") || s2.Len() != 2 {
		t.Errorf("set mutation leaked: s=%s s2=%s", s, s2)
	}
}

func TestSlotKeyOwner(t *testing.T) {
	if got := Key("AltitudeCapture", "relative").Owner(); got != "AltitudeCapture" {
		t.Errorf("Owner() = %q", got)
	}
}
