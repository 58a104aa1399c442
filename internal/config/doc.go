// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package config loads Guardian's configuration.

Configuration is layered with Koanf v2. Built-in defaults are loaded
first, then an optional YAML file, then mapped environment variables:

	ENV > File > Defaults

The file is taken from CONFIG_PATH, or the first of config.yaml,
config.yml, /etc/guardian/config.yaml and /etc/guardian/config.yml that
exists.

# Sections

  - engine: dispatch batch size, teleport avoid window, auto join
  - runner: tick interval and inbox size of the engine goroutine
  - world: floor and height limits of the mirrored world
  - coefficients: movement tuning tables used by captures
  - detections: startup enabled flag and settings per detection
  - intake: transport (channel or nats), topics, router retry and throttle
  - reports: pipeline queues, BadgerDB store, webhook, violation decay
  - server: admin HTTP API address, CORS, rate limits, timeouts
  - logging: level, format, caller
  - supervisor: suture failure thresholds and shutdown timeout

# Environment Variables

Only mapped names are read, e.g.:

  - HTTP_PORT, HTTP_HOST, CORS_ORIGINS (comma separated)
  - TICK_INTERVAL, INBOX_SIZE
  - INTAKE_TRANSPORT, NATS_URL, NATS_EMBEDDED
  - REPORT_STORE_PATH, REPORT_RETENTION, WEBHOOK_URL
  - DETECTION_SPEED_ENABLED and the other detection toggles
  - LOG_LEVEL, LOG_FORMAT

Detection settings are only read from the YAML file:

	detections:
	  speed:
	    enabled: true
	    settings:
	      tolerance: 0.05

# Validation

LoadWithKoanf validates struct tags through the validation package and
then applies cross-field checks (NATS URL when not embedded, webhook URL
scheme, query timeout versus tick interval).
*/
package config
