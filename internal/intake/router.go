// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/guardian/internal/logging"
)

// Router wraps the Watermill Router with pre-configured middleware.
type Router struct {
	router  *message.Router
	config  RouterConfig
	logger  watermill.LoggerAdapter
	log     *logging.EventLogger
	running atomic.Bool
}

// NewLogger returns a watermill logger backed by the global zerolog logger.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// NewRouter creates a Watermill Router with pre-configured middleware:
//   - Panic recovery
//   - Exponential backoff retry for a full engine inbox
//   - Optional rate limiting (throttling)
//   - Poison queue routing for messages that exhausted their retries
func NewRouter(cfg RouterConfig, poisonPublisher message.Publisher, poisonTopic string, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = NewLogger()
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router: wmRouter,
		config: cfg,
		logger: logger,
		log:    logging.NewEventLogger(),
	}

	// Poison queue is outermost so it only sees messages that failed
	// every retry.
	if poisonPublisher != nil && poisonTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, poisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)

	retryMiddleware := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retryMiddleware.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	return r, nil
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.router.AddConsumerHandler(name, topic, subscriber, handler)
}

// RunWithContext runs the router until ctx is canceled.
func (r *Router) RunWithContext(ctx context.Context) error {
	start := time.Now()
	r.running.Store(true)
	r.log.LogRouterStarted()
	defer func() {
		r.running.Store(false)
		r.log.LogRouterStopped(time.Since(start))
	}()

	if err := r.router.Run(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Close gracefully stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}
