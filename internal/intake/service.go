// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/guardian/internal/logging"
)

const handlerName = "host-events"

// Service runs a fresh router over a shared transport on every start, so
// it can be restarted by a supervisor.
type Service struct {
	config    Config
	transport *Transport
	handler   *Handler
	logger    watermill.LoggerAdapter

	// running is closed once the first router is processing messages.
	running chan struct{}
	once    sync.Once
}

// NewService creates the intake service.
func NewService(config Config, transport *Transport, handler *Handler, logger watermill.LoggerAdapter) *Service {
	if logger == nil {
		logger = NewLogger()
	}
	return &Service{
		config:    config,
		transport: transport,
		handler:   handler,
		logger:    logger,
		running:   make(chan struct{}),
	}
}

// RunWithContext consumes host events until ctx is canceled.
func (s *Service) RunWithContext(ctx context.Context) error {
	router, err := NewRouter(s.config.Router, s.transport.Publisher(), s.config.PoisonTopic, s.logger)
	if err != nil {
		return err
	}
	router.AddConsumerHandler(handlerName, s.config.Topic, s.transport.Subscriber(), s.handler.Handle)
	logging.NewEventLogger().LogSubscriptionStarted(s.transport.Name(), s.config.Topic)

	go func() {
		select {
		case <-router.Running():
			s.once.Do(func() { close(s.running) })
		case <-ctx.Done():
		}
	}()

	return router.RunWithContext(ctx)
}

// Running returns a channel closed once the first router is running.
func (s *Service) Running() <-chan struct{} {
	return s.running
}

// Publish encodes ev and publishes it on the event topic.
func (s *Service) Publish(ctx context.Context, ev *HostEvent) error {
	payload, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("encode host event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	if err := s.transport.Publisher().Publish(s.config.Topic, msg); err != nil {
		return fmt.Errorf("publish host event: %w", err)
	}
	return nil
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	return s.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (s *Service) String() string {
	return "intake-router"
}
