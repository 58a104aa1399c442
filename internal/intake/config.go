// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package intake

import "time"

// Transport names.
const (
	TransportChannel = "channel"
	TransportNATS    = "nats"
)

// Config configures event intake.
type Config struct {
	// Transport selects the message transport.
	Transport string `koanf:"transport" validate:"oneof=channel nats"`

	// Topic is the subject host events are published on.
	Topic string `koanf:"topic" validate:"required"`

	// PoisonTopic receives messages that failed every retry. Empty disables it.
	PoisonTopic string `koanf:"poison_topic"`

	// BufferSize is the gochannel output buffer.
	BufferSize int64 `koanf:"buffer_size" validate:"min=0"`

	Router RouterConfig `koanf:"router"`
	NATS   NATSConfig   `koanf:"nats"`
}

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration `koanf:"close_timeout" validate:"min=0"`

	// Retry configuration
	RetryMaxRetries      int           `koanf:"retry_max_retries" validate:"min=0"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval" validate:"min=0"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval" validate:"min=0"`
	RetryMultiplier      float64       `koanf:"retry_multiplier" validate:"min=1"`

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64 `koanf:"throttle_per_second" validate:"min=0"`
}

// NATSConfig configures the NATS JetStream transport.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	StoreDir      string        `koanf:"store_dir"`
	Port          int           `koanf:"port" validate:"min=0,max=65535"`
	StreamName    string        `koanf:"stream_name"`
	DurableName   string        `koanf:"durable_name"`
	QueueGroup    string        `koanf:"queue_group"`
	Subscribers   int           `koanf:"subscribers" validate:"min=0"`
	AckWait       time.Duration `koanf:"ack_wait" validate:"min=0"`
	MaxDeliver    int           `koanf:"max_deliver" validate:"min=0"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"min=0"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Transport:   TransportChannel,
		Topic:       "guardian.events",
		PoisonTopic: "guardian.poison",
		BufferSize:  4096,
		Router:      DefaultRouterConfig(),
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			StoreDir:      "/data/nats",
			Port:          4222,
			StreamName:    "GUARDIAN",
			DurableName:   "guardian",
			QueueGroup:    "guardian",
			Subscribers:   1,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
	}
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: 50 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0, // Disabled by default
	}
}
