// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// Intake results for metrics.
const (
	ResultProcessed = "processed"
	ResultDecode    = "decode_error"
	ResultInvalid   = "invalid"
	ResultBlocks    = "blocks"
	ResultRetry     = "retry"
)

// Submitter accepts engine events. engine.Runner implements it.
type Submitter interface {
	Submit(ev sequence.Event) error
}

// Handler maps host events onto the world mirror and the engine.
type Handler struct {
	mirror    *world.Mirror
	submitter Submitter
	clock     world.TimeProvider
	log       *logging.EventLogger
}

// NewHandler creates a handler.
func NewHandler(mirror *world.Mirror, submitter Submitter, clock world.TimeProvider) *Handler {
	if clock == nil {
		clock = world.SystemTime{}
	}
	return &Handler{
		mirror:    mirror,
		submitter: submitter,
		clock:     clock,
		log:       logging.NewEventLogger(),
	}
}

// Handle processes one message. Malformed messages are acknowledged and
// counted; only a rejected engine submission is returned as an error.
func (h *Handler) Handle(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if id := msg.Metadata.Get("correlation_id"); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}

	var result string
	ev, err := Decode(msg.Payload)
	if err != nil {
		result = ResultDecode
	} else {
		if ev.EntityID != "" {
			ctx = logging.ContextWithEntityID(ctx, ev.EntityID)
		}
		h.log.LogEventReceived(ctx, msg.UUID, ev.Kind)
		result, err = h.process(ev)
	}
	metrics.RecordIntake(result, time.Since(start))

	switch result {
	case ResultDecode, ResultInvalid:
		h.log.LogEventRejected(ctx, msg.UUID, result, err)
		return nil
	case ResultRetry:
		h.log.LogEventFailed(ctx, msg.UUID, err)
		return err
	default:
		return nil
	}
}

func (h *Handler) process(ev *HostEvent) (string, error) {
	if err := ev.Apply(h.mirror); err != nil {
		return ResultInvalid, err
	}
	if ev.Kind == KindBlock {
		return ResultBlocks, nil
	}

	id, err := world.ParseEntityID(ev.EntityID)
	if err != nil {
		return ResultInvalid, err
	}

	prev, _ := h.mirror.Snapshot(id)
	snap, err := ev.Snapshot(id, prev, h.clock.Now())
	if err != nil {
		return ResultInvalid, err
	}
	engineEv, err := ev.Event(id, snap.Location)
	if err != nil {
		return ResultInvalid, err
	}

	// A leaving entity's snapshot is dropped by the engine once its
	// sequences are discarded.
	h.mirror.Update(snap)

	if err := h.submitter.Submit(engineEv); err != nil {
		return ResultRetry, fmt.Errorf("submit %s for %s: %w", engineEv.Kind, id, err)
	}
	return ResultProcessed, nil
}
