// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/guardian/internal/api"
	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/intake"
	"github.com/tomtom215/guardian/internal/report"
	"github.com/tomtom215/guardian/internal/supervisor"
	"github.com/tomtom215/guardian/internal/world"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/guardian/config.yaml",
	"/etc/guardian/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	enabled := DetectionConfig{Enabled: true}
	return &Config{
		Engine:       engine.DefaultConfig(),
		Runner:       engine.DefaultRunnerConfig(),
		World:        world.DefaultMirrorConfig(),
		Coefficients: capture.DefaultCoefficients(),
		Detections: DetectionsConfig{
			Flight:       enabled,
			Speed:        enabled,
			InvalidState: enabled,
		},
		Intake:     intake.DefaultConfig(),
		Reports:    report.DefaultConfig(),
		Server:     api.DefaultConfig(),
		Logging:    LoggingConfig{Level: "info", Format: "json"},
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	// Engine
	"engine_batch_size":           "engine.batch_size",
	"engine_teleport_avoid_ticks": "engine.teleport_avoid_ticks",
	"engine_auto_join":            "engine.auto_join",
	"tick_interval":               "runner.tick_interval",
	"inbox_size":                  "runner.inbox_size",

	// World mirror
	"world_floor_y":        "world.floor_y",
	"world_min_y":          "world.min_y",
	"world_max_y":          "world.max_y",
	"world_floor_material": "world.floor_material",

	// Detections
	"detection_flight_enabled":        "detections.flight.enabled",
	"detection_speed_enabled":         "detections.speed.enabled",
	"detection_invalid_state_enabled": "detections.invalid_state.enabled",

	// Intake
	"intake_transport":           "intake.transport",
	"intake_topic":               "intake.topic",
	"intake_poison_topic":        "intake.poison_topic",
	"intake_buffer_size":         "intake.buffer_size",
	"intake_retry_max_retries":   "intake.router.retry_max_retries",
	"intake_throttle_per_second": "intake.router.throttle_per_second",
	"nats_url":                   "intake.nats.url",
	"nats_embedded":              "intake.nats.embedded",
	"nats_store_dir":             "intake.nats.store_dir",
	"nats_port":                  "intake.nats.port",
	"nats_stream_name":           "intake.nats.stream_name",
	"nats_durable_name":          "intake.nats.durable_name",
	"nats_queue_group":           "intake.nats.queue_group",
	"nats_subscribers":           "intake.nats.subscribers",

	// Reports
	"report_queue_size":        "reports.pipeline.queue_size",
	"report_send_timeout":      "reports.pipeline.send_timeout",
	"report_store_path":        "reports.store.path",
	"report_store_in_memory":   "reports.store.in_memory",
	"report_retention":         "reports.store.retention",
	"report_gc_interval":       "reports.store.gc_interval",
	"webhook_url":              "reports.webhook.url",
	"webhook_min_level":        "reports.webhook.min_level",
	"webhook_rate_per_second":  "reports.webhook.rate_per_second",
	"webhook_timeout":          "reports.webhook.timeout",
	"violation_threshold":      "reports.violation.threshold",
	"violation_decay_amount":   "reports.violation.decay_amount",
	"violation_decay_interval": "reports.violation.decay_interval",

	// HTTP server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"query_timeout":         "server.query_timeout",
	"stats_interval":        "server.stats_interval",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - TICK_INTERVAL -> runner.tick_interval
//   - NATS_URL -> intake.nats.url
//   - WEBHOOK_URL -> reports.webhook.url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
