// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeSubmitter records submitted events and optionally fails.
type fakeSubmitter struct {
	mu     sync.Mutex
	events []sequence.Event
	err    error
}

func (f *fakeSubmitter) Submit(ev sequence.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSubmitter) Events() []sequence.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sequence.Event(nil), f.events...)
}

func newTestHandler(sub Submitter) (*Handler, *world.Mirror) {
	mirror := world.NewMirror(world.DefaultMirrorConfig())
	return NewHandler(mirror, sub, world.NewMockTimeProvider(epoch)), mirror
}

func encodeMessage(t *testing.T, ev *HostEvent) *message.Message {
	t.Helper()
	payload, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func intakeCount(result string) float64 {
	return testutil.ToFloat64(metrics.IntakeMessages.WithLabelValues(result))
}

func TestHandler_Move(t *testing.T) {
	sub := &fakeSubmitter{}
	h, mirror := newTestHandler(sub)
	id := uuid.New()
	pos := world.Vec3{X: 10, Y: 65, Z: -4}

	before := intakeCount(ResultProcessed)
	msg := encodeMessage(t, &HostEvent{
		Kind:     "move",
		EntityID: id.String(),
		Name:     "steve",
		World:    "overworld",
		Position: &pos,
		Control:  []string{"flying"},
		PingMs:   25,
	})
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	events := sub.Events()
	if len(events) != 1 {
		t.Fatalf("submitted %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Kind != sequence.EventMove || ev.Entity != id || ev.Location == nil {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Location.World != "overworld" || ev.Location.Pos != pos {
		t.Errorf("location = %+v", *ev.Location)
	}

	snap, ok := mirror.Snapshot(id)
	if !ok {
		t.Fatal("mirror should hold the entity")
	}
	if snap.Name != "steve" || !snap.Control.Has(world.ControlFlying) || !snap.UpdatedAt.Equal(epoch) {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := intakeCount(ResultProcessed) - before; got != 1 {
		t.Errorf("processed delta = %v, want 1", got)
	}
}

func TestHandler_Rejected(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name    string
		payload string
		result  string
	}{
		{"malformed", `not json`, ResultDecode},
		{"missing entity", `{"kind":"move"}`, ResultDecode},
		{"unknown kind", `{"kind":"dance","entity_id":"` + id + `"}`, ResultInvalid},
		{"tick from host", `{"kind":"tick","entity_id":"` + id + `"}`, ResultInvalid},
		{"bad control", `{"kind":"move","entity_id":"` + id + `","control":["hovering"]}`, ResultInvalid},
		{"bad block class", `{"kind":"block","blocks":[{"world":"w","material":"x","class":"plasma"}]}`, ResultInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			h, _ := newTestHandler(sub)

			before := intakeCount(tt.result)
			msg := message.NewMessage(watermill.NewUUID(), []byte(tt.payload))
			if err := h.Handle(msg); err != nil {
				t.Fatalf("Handle() = %v, rejected messages are acknowledged", err)
			}
			if len(sub.Events()) != 0 {
				t.Error("rejected message should not reach the engine")
			}
			if got := intakeCount(tt.result) - before; got != 1 {
				t.Errorf("%s delta = %v, want 1", tt.result, got)
			}
		})
	}
}

func TestHandler_SubmitFailureIsRetried(t *testing.T) {
	inboxFull := errors.New("inbox full")
	sub := &fakeSubmitter{err: inboxFull}
	h, _ := newTestHandler(sub)

	before := intakeCount(ResultRetry)
	msg := encodeMessage(t, &HostEvent{Kind: "join", EntityID: uuid.NewString()})
	err := h.Handle(msg)
	if !errors.Is(err, inboxFull) {
		t.Fatalf("Handle() = %v, want wrapped inbox error", err)
	}
	if got := intakeCount(ResultRetry) - before; got != 1 {
		t.Errorf("retry delta = %v, want 1", got)
	}
}

func TestHandler_Blocks(t *testing.T) {
	sub := &fakeSubmitter{}
	h, mirror := newTestHandler(sub)

	msg := encodeMessage(t, &HostEvent{
		Kind:   KindBlock,
		Blocks: []BlockChange{{World: "overworld", X: 0, Y: 70, Z: 0, Material: "cobweb", Class: "liquid"}},
	})
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sub.Events()) != 0 {
		t.Error("block events should not reach the engine")
	}
	if got := mirror.MaterialAt("overworld", world.Vec3{X: 0.5, Y: 70.2, Z: 0.5}); got.Name != "cobweb" {
		t.Errorf("MaterialAt() = %+v, want cobweb", got)
	}
}

func TestHandler_KeepsPositionWithoutUpdate(t *testing.T) {
	sub := &fakeSubmitter{}
	h, mirror := newTestHandler(sub)
	id := uuid.New()
	pos := world.Vec3{X: 3, Y: 64, Z: 3}

	for _, ev := range []*HostEvent{
		{Kind: "join", EntityID: id.String(), World: "overworld", Position: &pos},
		{Kind: "vehicle", EntityID: id.String(), Control: []string{"in_vehicle"}},
	} {
		if err := h.Handle(encodeMessage(t, ev)); err != nil {
			t.Fatalf("Handle(%s) error = %v", ev.Kind, err)
		}
	}

	events := sub.Events()
	if len(events) != 2 {
		t.Fatalf("submitted %d events, want 2", len(events))
	}
	if events[1].Location != nil {
		t.Error("vehicle event without a position should not carry a location")
	}
	snap, _ := mirror.Snapshot(id)
	if snap.Location.Pos != pos || !snap.Control.Has(world.ControlInVehicle) {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHandler_CorrelationID(t *testing.T) {
	sub := &fakeSubmitter{}
	h, _ := newTestHandler(sub)

	msg := encodeMessage(t, &HostEvent{Kind: "respawn", EntityID: uuid.NewString()})
	msg.Metadata.Set("correlation_id", "corr-123")
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if events := sub.Events(); len(events) != 1 || events[0].Kind != sequence.EventRespawn {
		t.Errorf("events = %+v", events)
	}
}
