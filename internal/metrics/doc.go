// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed by the admin API at /metrics:

	curl http://localhost:8090/metrics

# Available Metrics

Engine Metrics:
  - guardian_events_dispatched_total: Events reaching live sequences (counter)
    Labels: kind
  - guardian_events_avoided_total: Events suppressed by the avoid set (counter)
    Labels: kind
  - guardian_sequences_spawned_total: Sequences created (counter)
    Labels: detection
  - guardian_sequences_terminated_total: Sequences removed (counter)
    Labels: detection, state
  - guardian_live_sequences: Live sequences (gauge)
  - guardian_tracked_entities: Tracked entities (gauge)
  - guardian_overload_rejections_total: Tick-rate guard rejections (counter)
    Labels: detection
  - guardian_tick_duration_seconds: Tick pulse duration (histogram)
  - guardian_inbox_drops_total: Events dropped on a full inbox (counter)
  - guardian_inbox_depth: Events waiting in the inbox (gauge)

Report Metrics:
  - guardian_reports_emitted_total: Reports produced (counter)
    Labels: detection, level
  - guardian_report_severity: Report severity (histogram)
    Labels: detection
  - guardian_sink_errors_total: Failed deliveries (counter)
    Labels: sink
  - guardian_report_queue_drops_total: Reports dropped on a full queue (counter)
  - guardian_violation_entities: Entities with a non-zero violation level (gauge)

Intake Metrics:
  - guardian_intake_messages_total: Host messages consumed (counter)
    Labels: result (processed, parse_failed, rejected)
  - guardian_intake_processing_duration_seconds: Handling time (histogram)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests by result (counter)
    Labels: name, result
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

API and WebSocket Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total

System Metrics:
  - app_info: Version and Go version (gauge)
  - app_uptime_seconds: Process uptime (gauge)

# Usage

Helpers wrap the common label combinations:

	metrics.RecordSpawn("flight")
	metrics.RecordTermination("flight", "finished")
	metrics.RecordReport("flight", "critical", 72.5)

# Example PromQL

Reports per minute by detection:

	sum by (detection) (rate(guardian_reports_emitted_total[1m]))

Share of sequences cancelled by the overload guard:

	sum(rate(guardian_overload_rejections_total[5m]))
	  / sum(rate(guardian_sequences_terminated_total[5m]))

# Thread Safety

All metric operations are safe for concurrent use.
*/
package metrics
