// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
)

// NotifierConfig configures the webhook notifier.
type NotifierConfig struct {
	// URL is the webhook endpoint. Empty disables the notifier.
	URL string `koanf:"url" validate:"omitempty,url"`

	// Headers are added to every request (e.g. auth).
	Headers map[string]string `koanf:"headers"`

	// MinLevel drops reports below this level.
	MinLevel string `koanf:"min_level" validate:"omitempty,oneof=info warning critical"`

	// RatePerSecond and Burst bound outgoing requests.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"gt=0"`
	Burst         int     `koanf:"burst" validate:"min=1"`

	// Timeout bounds a single request.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit; BreakerTimeout is how long it stays open.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"min=0"`
}

// DefaultNotifierConfig returns production defaults.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		MinLevel:        string(detection.LevelWarning),
		RatePerSecond:   2,
		Burst:           5,
		Timeout:         10 * time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// WebhookPayload is the JSON payload sent to the webhook endpoint.
type WebhookPayload struct {
	Report    *detection.Report `json:"report"`
	Title     string            `json:"title"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
}

// Notifier posts reports to a webhook.
type Notifier struct {
	url      string
	headers  map[string]string
	minLevel detection.Level
	client   *http.Client
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[interface{}]
}

const breakerName = "webhook"

// NewNotifier creates a webhook notifier. It returns a nil notifier and no
// error when no URL is configured.
func NewNotifier(cfg NotifierConfig) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	var minLevel detection.Level
	if cfg.MinLevel != "" {
		lvl, err := detection.ParseLevel(cfg.MinLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid notifier min level: %w", err)
		}
		minLevel = lvl
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultNotifierConfig().RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNotifierConfig().Timeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultNotifierConfig().BreakerFailures
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Notifier{
		url:      cfg.URL,
		headers:  headers,
		minLevel: minLevel,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cb: gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
				metrics.RecordBreakerTransition(name, from.String(), to.String(), stateToFloat(to))
			},
		}),
	}, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name implements Sink.
func (n *Notifier) Name() string {
	return breakerName
}

// State returns the circuit breaker state.
func (n *Notifier) State() gobreaker.State {
	return n.cb.State()
}

// Send posts r when it meets the minimum level.
func (n *Notifier) Send(ctx context.Context, r *detection.Report) error {
	if !r.Level.AtLeast(n.minLevel) {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit: %w", err)
	}

	body, err := json.Marshal(WebhookPayload{
		Report:    r,
		Title:     r.Title(),
		EventType: "detection_report",
		Timestamp: time.Now().UTC(),
		Source:    "guardian",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	_, err = n.cb.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, body)
	})
	switch {
	case err == nil:
		metrics.RecordBreaker(breakerName, "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreaker(breakerName, "rejected")
		return fmt.Errorf("webhook circuit open: %w", err)
	default:
		metrics.RecordBreaker(breakerName, "failure")
		return err
	}
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
