// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

//go:build !nats

package intake

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
)

// ErrNATSNotAvailable is returned when the binary was built without NATS.
var ErrNATSNotAvailable = errors.New("NATS transport not available: build with -tags=nats")

// NewNATSTransport returns ErrNATSNotAvailable. Build with -tags=nats to
// enable the JetStream transport.
func NewNATSTransport(_ context.Context, _ Config, _ watermill.LoggerAdapter) (*Transport, error) {
	return nil, ErrNATSNotAvailable
}
