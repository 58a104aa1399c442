// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Event dispatch and avoidance
// - Sequence lifecycle
// - Report emission and delivery
// - Intake transport
// - Admin API and WebSocket stream

var (
	// Engine Metrics
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_events_dispatched_total",
			Help: "Total number of events dispatched to the engine",
		},
		[]string{"kind"},
	)

	EventsAvoided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_events_avoided_total",
			Help: "Total number of events suppressed by the avoid set",
		},
		[]string{"kind"},
	)

	SequencesSpawned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_sequences_spawned_total",
			Help: "Total number of sequences created from blueprints",
		},
		[]string{"detection"},
	)

	SequencesTerminated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_sequences_terminated_total",
			Help: "Total number of sequences removed from the live set",
		},
		[]string{"detection", "state"}, // state: finished, expired, cancelled, discarded
	)

	LiveSequences = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guardian_live_sequences",
			Help: "Current number of live sequences",
		},
	)

	TrackedEntities = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guardian_tracked_entities",
			Help: "Current number of tracked entities",
		},
	)

	OverloadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_overload_rejections_total",
			Help: "Total number of steps rejected by the tick-rate guard",
		},
		[]string{"detection"},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guardian_tick_duration_seconds",
			Help:    "Time spent in one engine tick pulse",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05}, // One game tick is 50ms
		},
	)

	InboxDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guardian_inbox_drops_total",
			Help: "Total number of events dropped because the engine inbox was full",
		},
	)

	InboxDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guardian_inbox_depth",
			Help: "Current number of events waiting in the engine inbox",
		},
	)

	// Report Metrics
	ReportsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_reports_emitted_total",
			Help: "Total number of reports produced by finished sequences",
		},
		[]string{"detection", "level"},
	)

	ReportSeverity = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardian_report_severity",
			Help:    "Severity of emitted reports",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 80, 100},
		},
		[]string{"detection"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_sink_errors_total",
			Help: "Total number of failed report deliveries",
		},
		[]string{"sink"},
	)

	ReportQueueDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guardian_report_queue_drops_total",
			Help: "Total number of reports dropped because the pipeline queue was full",
		},
	)

	ViolationLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guardian_violation_entities",
			Help: "Current number of entities with a non-zero violation level",
		},
	)

	// Intake Metrics
	IntakeMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_intake_messages_total",
			Help: "Total number of host messages consumed",
		},
		[]string{"result"}, // result: "processed", "parse_failed", "rejected"
	)

	IntakeProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guardian_intake_processing_duration_seconds",
			Help:    "Duration of host message handling",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDispatch records an event reaching the engine.
func RecordDispatch(kind string, avoided bool) {
	if avoided {
		EventsAvoided.WithLabelValues(kind).Inc()
		return
	}
	EventsDispatched.WithLabelValues(kind).Inc()
}

// RecordSpawn records a new live sequence.
func RecordSpawn(detection string) {
	SequencesSpawned.WithLabelValues(detection).Inc()
	LiveSequences.Inc()
}

// RecordTermination records a sequence leaving the live set.
func RecordTermination(detection, state string) {
	SequencesTerminated.WithLabelValues(detection, state).Inc()
	LiveSequences.Dec()
}

// RecordReport records an emitted report.
func RecordReport(detection, level string, severity float64) {
	ReportsEmitted.WithLabelValues(detection, level).Inc()
	ReportSeverity.WithLabelValues(detection).Observe(severity)
}

// RecordTick records the duration of one tick pulse.
func RecordTick(duration time.Duration) {
	TickDuration.Observe(duration.Seconds())
}

// RecordIntake records one consumed host message.
func RecordIntake(result string, duration time.Duration) {
	IntakeMessages.WithLabelValues(result).Inc()
	IntakeProcessingDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBreaker records one request through a circuit breaker.
func RecordBreaker(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change. States use
// the 0=closed, 1=half-open, 2=open encoding.
func RecordBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}
