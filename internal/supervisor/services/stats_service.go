// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package services

import (
	"context"
	"time"

	"github.com/tomtom215/guardian/internal/logging"
)

// StatsFunc returns a snapshot of engine counters.
//
// It is called from the broadcaster goroutine and must honor ctx, since the
// engine may be busy on its own tick.
type StatsFunc func(ctx context.Context) (interface{}, error)

// StatsBroadcaster matches the part of *websocket.Hub the service needs.
type StatsBroadcaster interface {
	BroadcastStats(stats interface{})
	GetClientCount() int
}

// StatsBroadcasterService periodically pushes engine stats to WebSocket
// clients. Ticks with no connected clients skip the engine query entirely.
//
// Example usage:
//
//	svc := services.NewStatsBroadcasterService(statsFn, hub, 2*time.Second)
//	tree.AddAPIService(svc)
type StatsBroadcasterService struct {
	stats    StatsFunc
	hub      StatsBroadcaster
	interval time.Duration
	name     string
}

// NewStatsBroadcasterService creates a stats broadcaster. A non-positive
// interval defaults to two seconds.
func NewStatsBroadcasterService(stats StatsFunc, hub StatsBroadcaster, interval time.Duration) *StatsBroadcasterService {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &StatsBroadcasterService{
		stats:    stats,
		hub:      hub,
		interval: interval,
		name:     "stats-broadcaster",
	}
}

// Serve implements suture.Service.
//
// A failed query is logged and retried on the next tick; it never ends the
// service. The method returns ctx.Err() on shutdown.
func (s *StatsBroadcasterService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.broadcast(ctx)
		}
	}
}

func (s *StatsBroadcasterService) broadcast(ctx context.Context) {
	if s.hub.GetClientCount() == 0 {
		return
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	stats, err := s.stats(queryCtx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Msg("Failed to collect engine stats for broadcast")
		}
		return
	}
	s.hub.BroadcastStats(stats)
}

// String implements fmt.Stringer for logging.
func (s *StatsBroadcasterService) String() string {
	return s.name
}
