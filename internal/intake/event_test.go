// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

func TestDecode(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"move", `{"kind":"move","entity_id":"` + id + `","position":{"x":1,"y":64,"z":2}}`, false},
		{"block without entity", `{"kind":"block","blocks":[{"world":"w","x":1,"y":2,"z":3,"material":"ice","class":"solid"}]}`, false},
		{"malformed json", `{"kind":`, true},
		{"missing kind", `{"entity_id":"` + id + `"}`, true},
		{"missing entity", `{"kind":"move"}`, true},
		{"bad uuid", `{"kind":"move","entity_id":"steve"}`, true},
		{"negative ping", `{"kind":"move","entity_id":"` + id + `","ping_ms":-1}`, true},
		{"position at the border", `{"kind":"move","entity_id":"` + id + `","position":{"x":-3e7,"y":64,"z":3e7}}`, false},
		{"huge height", `{"kind":"move","entity_id":"` + id + `","position":{"x":0,"y":1e17,"z":0}}`, true},
		{"huge velocity", `{"kind":"move","entity_id":"` + id + `","velocity":{"x":0,"y":-1e9,"z":0}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHostEvent_Snapshot(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := world.Snapshot{
		ID:       id,
		Name:     "alex",
		Location: world.Location{World: "overworld", Pos: world.Vec3{X: 1, Y: 70, Z: 1}},
	}

	t.Run("keeps previous position", func(t *testing.T) {
		ev := &HostEvent{Kind: "move", Control: []string{"sprinting", "on_ground"}, PingMs: 40}
		snap, err := ev.Snapshot(id, prev, now)
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if snap.Location != prev.Location || snap.Name != "alex" {
			t.Errorf("snapshot = %+v, want previous location and name", snap)
		}
		if !snap.Control.Has(world.ControlSprinting|world.ControlOnGround) || snap.Ping != 40*time.Millisecond {
			t.Errorf("control = %s ping = %v", snap.Control, snap.Ping)
		}
		if !snap.UpdatedAt.Equal(now) {
			t.Errorf("UpdatedAt = %v", snap.UpdatedAt)
		}
	})

	t.Run("new world and position", func(t *testing.T) {
		pos := world.Vec3{X: 5, Y: 80, Z: 5}
		ev := &HostEvent{Kind: "teleport", World: "nether", Position: &pos, Name: "alex2"}
		snap, err := ev.Snapshot(id, prev, now)
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		want := world.Location{World: "nether", Pos: pos}
		if snap.Location != want || snap.Name != "alex2" {
			t.Errorf("snapshot = %+v, want %+v", snap, want)
		}
	})

	t.Run("unknown control flag", func(t *testing.T) {
		ev := &HostEvent{Kind: "move", Control: []string{"levitating"}}
		if _, err := ev.Snapshot(id, prev, now); err == nil {
			t.Error("expected error for unknown control flag")
		}
	})
}

func TestHostEvent_Event(t *testing.T) {
	id := uuid.New()
	loc := world.Location{World: "overworld", Pos: world.Vec3{Y: 64}}
	pos := loc.Pos

	tests := []struct {
		name     string
		ev       HostEvent
		wantKind sequence.EventKind
		wantLoc  bool
		wantErr  bool
	}{
		{"move with position", HostEvent{Kind: "move", Position: &pos}, sequence.EventMove, true, false},
		{"join", HostEvent{Kind: "JOIN"}, sequence.EventJoin, false, false},
		{"vehicle", HostEvent{Kind: "vehicle"}, sequence.EventVehicle, false, false},
		{"tick is internal", HostEvent{Kind: "tick"}, 0, false, true},
		{"unknown", HostEvent{Kind: "dance"}, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ev.Event(id, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Event() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Kind != tt.wantKind || got.Entity != id {
				t.Errorf("Event() = %+v", got)
			}
			if (got.Location != nil) != tt.wantLoc {
				t.Errorf("Location = %v, want set=%v", got.Location, tt.wantLoc)
			}
			if got.Location != nil && *got.Location != loc {
				t.Errorf("Location = %+v, want %+v", *got.Location, loc)
			}
		})
	}
}

func TestHostEvent_Apply(t *testing.T) {
	m := world.NewMirror(world.DefaultMirrorConfig())
	pos := world.Vec3{X: 1.5, Y: 2.5, Z: 3.5}

	ev := &HostEvent{Kind: KindBlock, Blocks: []BlockChange{{World: "w", X: 1, Y: 2, Z: 3, Material: "water", Class: "liquid"}}}
	if err := ev.Apply(m); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := m.MaterialAt("w", pos); got.Name != "water" || got.Class != world.MaterialLiquid {
		t.Errorf("MaterialAt() = %+v, want water", got)
	}

	clear := &HostEvent{Kind: KindBlock, Blocks: []BlockChange{{World: "w", X: 1, Y: 2, Z: 3}}}
	if err := clear.Apply(m); err != nil {
		t.Fatalf("Apply(clear) error = %v", err)
	}
	if got := m.MaterialAt("w", pos); got.Name == "water" {
		t.Error("block override should be cleared")
	}

	bad := &HostEvent{Kind: KindBlock, Blocks: []BlockChange{{World: "w", Material: "goo", Class: "plasma"}}}
	if err := bad.Apply(m); err == nil {
		t.Error("expected error for unknown material class")
	}
}
