// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"net"
	"strconv"
	"time"
)

// Config configures the admin HTTP server.
type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	// CORSOrigins lists allowed origins for CORS and WebSocket upgrades.
	// "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`

	// QueryTimeout bounds a round trip to the engine goroutine.
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"min=0"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"min=0"`

	// StatsInterval is how often engine stats are pushed to WebSocket clients.
	StatsInterval time.Duration `koanf:"stats_interval" validate:"min=0"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		CORSOrigins:       []string{},
		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		QueryTimeout:      2 * time.Second,
		MaxBodyBytes:      1 << 20,
		StatsInterval:     2 * time.Second,
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
