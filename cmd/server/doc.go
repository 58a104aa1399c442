// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package main is the entry point for the Guardian server.

Guardian consumes movement and world events published by a game server,
replays them against a mirror of the world and runs detection sequences that
flag flight, speed and invalid-state anomalies. Reports are persisted, scored
per entity, pushed to WebSocket clients and optionally posted to a webhook.

# Application Architecture

	RootSupervisor ("guardian")
	├── CoreSupervisor ("core-layer")
	│   ├── Engine runner
	│   ├── Report pipeline
	│   ├── Report store GC
	│   └── Violation decay
	├── IntakeSupervisor ("intake-layer")
	│   └── Intake router (gochannel, or NATS JetStream with -tags nats)
	└── APISupervisor ("api-layer")
	    ├── HTTP server (admin API and /ws)
	    ├── WebSocket hub
	    └── Stats broadcaster

Component initialization order:

 1. Configuration: Koanf v2 defaults, optional YAML file, environment
 2. Logging: zerolog, bridged to slog for suture
 3. World mirror and detection registry
 4. Report store (BadgerDB), violation tracker, webhook notifier, hub
 5. Report pipeline and engine runner
 6. Intake transport and service
 7. HTTP server

# Build Tags

	go build ./cmd/server               # in-process gochannel intake
	go build -tags nats ./cmd/server    # NATS JetStream intake

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service within SUPERVISOR_SHUTDOWN_TIMEOUT, then the transport and report
store are closed.

# Example Usage

	export HTTP_PORT=8080
	export TICK_INTERVAL=50ms
	export REPORT_STORE_PATH=/data/reports
	export WEBHOOK_URL=https://hooks.example/guardian
	./guardian
*/
package main
