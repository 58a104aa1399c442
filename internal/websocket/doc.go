// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package websocket streams detection reports to operator dashboards.

It uses gorilla/websocket with a hub-client architecture:

	┌──────────┐
	│   Hub    │ ← Broadcasts reports and stats
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: reads pings and subscription changes
  - writePump: writes messages and keepalive pings

Message Types:

  - report: a detection report (server to client)
  - stats: engine counters (server to client)
  - subscribe: replace the client's report filter (client to server)
  - ping / pong: application-level keepalive

Filtering:

A client receives every report until it sends a subscribe message:

	{"type": "subscribe", "data": {"detections": ["flight"], "min_level": "warning"}}

An empty detections list matches every detection.

Usage:

	hub := websocket.NewHub()
	tree.AddAPIService(services.NewWebSocketHubService(hub))

	// in the HTTP handler after upgrading
	client := websocket.NewClient(hub, conn)
	hub.Register <- client
	client.Start()

	hub.BroadcastReport(report)

Thread Safety:

Broadcast methods never block; messages are dropped with a warning when the
broadcast buffer is full. Slow clients whose send buffer is full are
disconnected.
*/
package websocket
