// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
	"github.com/tomtom215/guardian/internal/sequence"
)

// ErrInboxFull is returned by Submit when the inbox is at capacity.
var ErrInboxFull = errors.New("engine inbox full")

// RunnerConfig configures the runner goroutine.
type RunnerConfig struct {
	// TickInterval is the wall-clock length of one game tick.
	TickInterval time.Duration `koanf:"tick_interval" validate:"required,min=1ms"`

	// InboxSize bounds the number of queued events.
	InboxSize int `koanf:"inbox_size" validate:"min=1"`
}

// DefaultRunnerConfig returns a 20 TPS runner.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		TickInterval: 50 * time.Millisecond,
		InboxSize:    4096,
	}
}

type query struct {
	fn   func(*Engine)
	done chan struct{}
}

// Runner owns an Engine on a single goroutine.
type Runner struct {
	engine  *Engine
	config  RunnerConfig
	inbox   chan sequence.Event
	queries chan query
}

// NewRunner creates a runner for e.
func NewRunner(e *Engine, config RunnerConfig) *Runner {
	if config.InboxSize <= 0 {
		config.InboxSize = DefaultRunnerConfig().InboxSize
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultRunnerConfig().TickInterval
	}
	return &Runner{
		engine:  e,
		config:  config,
		inbox:   make(chan sequence.Event, config.InboxSize),
		queries: make(chan query),
	}
}

// Submit queues an event without blocking.
func (r *Runner) Submit(ev sequence.Event) error {
	select {
	case r.inbox <- ev:
		metrics.InboxDepth.Set(float64(len(r.inbox)))
		return nil
	default:
		metrics.InboxDrops.Inc()
		return ErrInboxFull
	}
}

// Query runs fn on the engine goroutine and waits for it to return.
func (r *Runner) Query(ctx context.Context, fn func(*Engine)) error {
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case r.queries <- q:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunWithContext drives the engine until ctx is canceled. It returns
// ctx.Err() on normal shutdown.
func (r *Runner) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(r.config.TickInterval)
	defer ticker.Stop()

	logging.Info().
		Dur("tick_interval", r.config.TickInterval).
		Int("inbox_size", r.config.InboxSize).
		Msg("engine runner started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Int64("tick", r.engine.Now()).Msg("engine runner stopped")
			return ctx.Err()

		case ev := <-r.inbox:
			r.engine.Dispatch(ctx, ev)
			metrics.InboxDepth.Set(float64(len(r.inbox)))

		case <-ticker.C:
			start := time.Now()
			r.engine.Tick(ctx)
			metrics.RecordTick(time.Since(start))

		case q := <-r.queries:
			q.fn(r.engine)
			close(q.done)
		}
	}
}

// Serve implements suture.Service.
func (r *Runner) Serve(ctx context.Context) error {
	return r.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (r *Runner) String() string {
	return "engine-runner"
}
