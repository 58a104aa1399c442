// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/guardian/internal/detection"
)

func testNotifierConfig(url string) NotifierConfig {
	cfg := DefaultNotifierConfig()
	cfg.URL = url
	cfg.RatePerSecond = 1000
	cfg.Burst = 100
	cfg.Timeout = time.Second
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute
	return cfg
}

func TestNewNotifier(t *testing.T) {
	n, err := NewNotifier(NotifierConfig{})
	if err != nil || n != nil {
		t.Errorf("NewNotifier(no url) = %v, %v, want nil, nil", n, err)
	}

	if _, err := NewNotifier(NotifierConfig{URL: "http://x", MinLevel: "loud"}); err == nil {
		t.Error("expected error for unknown min level")
	}

	n, err = NewNotifier(NotifierConfig{URL: "http://x"})
	if err != nil {
		t.Fatalf("NewNotifier() error = %v", err)
	}
	if n.Name() != "webhook" {
		t.Errorf("Name() = %q", n.Name())
	}
	if n.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", n.State())
	}
}

func TestNotifier_Send(t *testing.T) {
	var received atomic.Int32
	var payload WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := testNotifierConfig(server.URL)
	cfg.Headers = map[string]string{"Authorization": "Bearer token"}
	n, err := NewNotifier(cfg)
	if err != nil {
		t.Fatalf("NewNotifier() error = %v", err)
	}

	r := newReport(uuid.New(), detection.NameFlight, detection.LevelCritical, 90, epoch)
	if err := n.Send(context.Background(), r); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if received.Load() != 1 {
		t.Fatalf("server received %d requests, want 1", received.Load())
	}
	if payload.Source != "guardian" || payload.EventType != "detection_report" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Report == nil || payload.Report.ID != r.ID || payload.Title != r.Title() {
		t.Errorf("payload report = %+v", payload.Report)
	}

	// Below the default warning floor.
	if err := n.Send(context.Background(), newReport(uuid.New(), detection.NameFlight, detection.LevelInfo, 1, epoch)); err != nil {
		t.Fatalf("Send(info) error = %v", err)
	}
	if received.Load() != 1 {
		t.Error("info report should not be posted")
	}
}

func TestNotifier_BreakerOpens(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n, err := NewNotifier(testNotifierConfig(server.URL))
	if err != nil {
		t.Fatalf("NewNotifier() error = %v", err)
	}
	r := newReport(uuid.New(), detection.NameSpeed, detection.LevelCritical, 90, epoch)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := n.Send(ctx, r); err == nil {
			t.Fatalf("Send() %d expected error for 502", i)
		}
	}
	if n.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", n.State())
	}

	err = n.Send(ctx, r)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Send() with open circuit = %v, want ErrOpenState", err)
	}
	if received.Load() != 2 {
		t.Errorf("server received %d requests, want 2", received.Load())
	}
}

func TestNotifier_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testNotifierConfig(server.URL)
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	n, err := NewNotifier(cfg)
	if err != nil {
		t.Fatalf("NewNotifier() error = %v", err)
	}
	r := newReport(uuid.New(), detection.NameSpeed, detection.LevelCritical, 90, epoch)

	if err := n.Send(context.Background(), r); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := n.Send(ctx, r); err == nil {
		t.Error("second Send() should fail waiting on the rate limiter")
	}
}
