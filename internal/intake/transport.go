// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Transport is a long-lived publisher/subscriber pair. Routers borrow the
// subscriber without closing it, so a restarted router resubscribes to the
// same transport.
type Transport struct {
	name       string
	publisher  message.Publisher
	subscriber message.Subscriber
	closers    []func() error
}

// NewChannelTransport creates an in-process gochannel transport.
func NewChannelTransport(bufferSize int64, logger watermill.LoggerAdapter) *Transport {
	if logger == nil {
		logger = NewLogger()
	}
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, logger)
	return &Transport{
		name:       TransportChannel,
		publisher:  ch,
		subscriber: ch,
		closers:    []func() error{ch.Close},
	}
}

// NewTransport creates the transport selected by cfg.
func NewTransport(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Transport {
	case "", TransportChannel:
		return NewChannelTransport(cfg.BufferSize, logger), nil
	case TransportNATS:
		return NewNATSTransport(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return t.name
}

// Publisher returns the transport's publisher.
func (t *Transport) Publisher() message.Publisher {
	return t.publisher
}

// Subscriber returns a subscriber whose Close is a no-op.
func (t *Transport) Subscriber() message.Subscriber {
	return borrowedSubscriber{t.subscriber}
}

// Close releases the transport in reverse creation order.
func (t *Transport) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type borrowedSubscriber struct {
	message.Subscriber
}

func (borrowedSubscriber) Close() error { return nil }
