// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeBroadcaster struct {
	clients atomic.Int32
	mu      sync.Mutex
	sent    []interface{}
}

func (f *fakeBroadcaster) BroadcastStats(stats interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, stats)
}

func (f *fakeBroadcaster) GetClientCount() int { return int(f.clients.Load()) }

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestNewStatsBroadcasterService_DefaultInterval(t *testing.T) {
	svc := NewStatsBroadcasterService(nil, &fakeBroadcaster{}, 0)
	if svc.interval != 2*time.Second {
		t.Errorf("interval = %v, want 2s", svc.interval)
	}
	if svc.String() != "stats-broadcaster" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestStatsBroadcasterService_Broadcast(t *testing.T) {
	tests := []struct {
		name      string
		clients   int32
		statsErr  error
		wantCalls int32
		wantSent  int
	}{
		{"no clients skips the query", 0, nil, 0, 0},
		{"clients receive stats", 2, nil, 1, 1},
		{"query failure is not broadcast", 1, errors.New("engine busy"), 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := &fakeBroadcaster{}
			hub.clients.Store(tt.clients)
			var calls atomic.Int32
			stats := func(ctx context.Context) (interface{}, error) {
				calls.Add(1)
				if _, ok := ctx.Deadline(); !ok {
					t.Error("stats query should carry a deadline")
				}
				return map[string]int{"tick": 7}, tt.statsErr
			}

			svc := NewStatsBroadcasterService(stats, hub, 50*time.Millisecond)
			svc.broadcast(context.Background())

			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("stats calls = %d, want %d", got, tt.wantCalls)
			}
			if got := hub.count(); got != tt.wantSent {
				t.Errorf("broadcasts = %d, want %d", got, tt.wantSent)
			}
		})
	}
}

func TestStatsBroadcasterService_Serve(t *testing.T) {
	hub := &fakeBroadcaster{}
	hub.clients.Store(1)
	stats := func(context.Context) (interface{}, error) { return struct{}{}, nil }
	svc := NewStatsBroadcasterService(stats, hub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for hub.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("broadcasts = %d, want at least 2", hub.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
