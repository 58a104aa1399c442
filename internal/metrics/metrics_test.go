// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDispatch verifies dispatched and avoided events use separate counters
func TestRecordDispatch(t *testing.T) {
	beforeDispatched := testutil.ToFloat64(EventsDispatched.WithLabelValues("move"))
	beforeAvoided := testutil.ToFloat64(EventsAvoided.WithLabelValues("move"))

	RecordDispatch("move", false)
	RecordDispatch("move", false)
	RecordDispatch("move", true)

	if got := testutil.ToFloat64(EventsDispatched.WithLabelValues("move")) - beforeDispatched; got != 2 {
		t.Errorf("dispatched delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(EventsAvoided.WithLabelValues("move")) - beforeAvoided; got != 1 {
		t.Errorf("avoided delta = %v, want 1", got)
	}
}

// TestSequenceLifecycle verifies the live gauge tracks spawns and terminations
func TestSequenceLifecycle(t *testing.T) {
	before := testutil.ToFloat64(LiveSequences)

	RecordSpawn("flight")
	RecordSpawn("speed")
	RecordTermination("flight", "finished")

	if got := testutil.ToFloat64(LiveSequences) - before; got != 1 {
		t.Errorf("live delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SequencesTerminated.WithLabelValues("flight", "finished")); got < 1 {
		t.Errorf("terminated counter = %v", got)
	}
	RecordTermination("speed", "cancelled")
}

// TestRecordReport verifies report counters by detection and level
func TestRecordReport(t *testing.T) {
	before := testutil.ToFloat64(ReportsEmitted.WithLabelValues("speed", "critical"))
	RecordReport("speed", "critical", 75)
	if got := testutil.ToFloat64(ReportsEmitted.WithLabelValues("speed", "critical")) - before; got != 1 {
		t.Errorf("reports delta = %v, want 1", got)
	}
}

// TestTrackActiveRequest tests the active request gauge
func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("active delta = %v, want 1", got)
	}
	TrackActiveRequest(false)
}

// TestRecordBreakerTransition verifies the state gauge follows transitions
func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("webhook", "closed", "open", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("webhook")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	RecordBreakerTransition("webhook", "open", "half-open", 1)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("webhook")); got != 1 {
		t.Errorf("state = %v, want 1", got)
	}
}

// TestConcurrentMetricRecording tests thread-safety of metric helpers
func TestConcurrentMetricRecording(t *testing.T) {
	before := testutil.ToFloat64(IntakeMessages.WithLabelValues("processed"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordIntake("processed", time.Millisecond)
			RecordTick(time.Millisecond)
			RecordAPIRequest("GET", "/api/v1/reports", "200", time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(IntakeMessages.WithLabelValues("processed")) - before; got != 50 {
		t.Errorf("intake delta = %v, want 50", got)
	}
}
