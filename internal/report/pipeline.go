// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
)

// PipelineConfig configures report fan-out.
type PipelineConfig struct {
	// QueueSize bounds the per-sink queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// SendTimeout bounds a single delivery.
	SendTimeout time.Duration `koanf:"send_timeout" validate:"min=0"`

	// DrainTimeout bounds delivery of queued reports on shutdown.
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"min=0"`
}

// DefaultPipelineConfig returns production defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		QueueSize:    1024,
		SendTimeout:  15 * time.Second,
		DrainTimeout: 5 * time.Second,
	}
}

type lane struct {
	sink  Sink
	queue chan *detection.Report
}

// Pipeline fans reports out to sinks asynchronously. It implements the
// engine's report sink.
type Pipeline struct {
	config PipelineConfig
	lanes  []*lane
}

// NewPipeline creates a pipeline delivering to sinks. Nil sinks are skipped.
func NewPipeline(config PipelineConfig, sinks ...Sink) *Pipeline {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultPipelineConfig().QueueSize
	}
	p := &Pipeline{config: config}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		p.lanes = append(p.lanes, &lane{sink: s, queue: make(chan *detection.Report, config.QueueSize)})
	}
	return p
}

// Sinks returns the sink names in delivery order.
func (p *Pipeline) Sinks() []string {
	names := make([]string, len(p.lanes))
	for i, l := range p.lanes {
		names[i] = l.sink.Name()
	}
	return names
}

// Submit queues r for every sink without blocking.
func (p *Pipeline) Submit(_ context.Context, r *detection.Report) {
	if r == nil {
		return
	}
	for _, l := range p.lanes {
		select {
		case l.queue <- r:
		default:
			metrics.ReportQueueDrops.Inc()
			logging.Warn().
				Str("sink", l.sink.Name()).
				Str("report_id", r.ID).
				Msg("report queue full, dropping report")
		}
	}
}

// RunWithContext delivers reports until ctx is canceled, then drains what
// is already queued and returns ctx.Err().
func (p *Pipeline) RunWithContext(ctx context.Context) error {
	logging.Info().Strs("sinks", p.Sinks()).Msg("report pipeline started")

	var wg sync.WaitGroup
	for _, l := range p.lanes {
		wg.Add(1)
		go func(l *lane) {
			defer wg.Done()
			p.run(ctx, l)
		}(l)
	}
	wg.Wait()

	logging.Info().Msg("report pipeline stopped")
	return ctx.Err()
}

func (p *Pipeline) run(ctx context.Context, l *lane) {
	for {
		select {
		case <-ctx.Done():
			p.drain(l)
			return
		case r := <-l.queue:
			p.deliver(ctx, l.sink, r)
		}
	}
}

func (p *Pipeline) drain(l *lane) {
	if len(l.queue) == 0 {
		return
	}
	ctx := context.Background()
	if p.config.DrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.DrainTimeout)
		defer cancel()
	}
	for {
		select {
		case r := <-l.queue:
			p.deliver(ctx, l.sink, r)
		default:
			return
		}
	}
}

func (p *Pipeline) deliver(ctx context.Context, s Sink, r *detection.Report) {
	if p.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.SendTimeout)
		defer cancel()
	}
	if err := s.Send(ctx, r); err != nil {
		metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
		logging.Error().
			Err(err).
			Str("sink", s.Name()).
			Str("report_id", r.ID).
			Str("detection", r.Detection).
			Msg("report delivery failed")
	}
}

// Serve implements suture.Service.
func (p *Pipeline) Serve(ctx context.Context) error {
	return p.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (p *Pipeline) String() string {
	return "report-pipeline"
}
