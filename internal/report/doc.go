// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package report delivers detection reports produced by the engine to their
downstream consumers.

The engine hands every report to a Pipeline through the non-blocking
Submit method. The pipeline keeps one bounded queue per Sink, so a slow
webhook never delays persistence or the live stream. A full queue drops the
report for that sink only and increments guardian_report_queue_drops_total.

Sinks:

  - Store: BadgerDB persistence, keyed report/<entity>/<unix-nano>/<id>
  - Notifier: webhook POST guarded by a rate limiter and a circuit breaker
  - ViolationTracker: per-entity violation level that decays over time
  - websocket.Hub: live stream to dashboard clients

Usage:

	store, err := report.OpenStore(cfg.Reports.Store)
	if err != nil {
	    return err
	}
	defer store.Close()

	sinks := []report.Sink{store, tracker, hub}
	if notifier != nil {
	    sinks = append(sinks, notifier)
	}
	pipeline := report.NewPipeline(cfg.Reports.Pipeline, sinks...)
	supervisor.Add(pipeline)

	eng := engine.New(cfg.Engine, registry, mirror, world.SystemTime{}, pipeline)

Thread Safety:

All sinks in this package are safe for concurrent use.
*/
package report
