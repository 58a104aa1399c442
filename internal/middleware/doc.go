// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package middleware provides HTTP middleware for the admin API.

All middleware uses the chi signature func(http.Handler) http.Handler so it
can be mounted with r.Use.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation IDs in
    the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge labelled by
    the chi route pattern
  - Compression: chi Compressor limited to JSON and text, skipping
    WebSocket upgrades

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.Compression)
	    r.Get("/reports", h.Reports)
	})

Route patterns rather than raw paths are used as the endpoint label so
entity IDs in URLs do not create a series per entity.
*/
package middleware
