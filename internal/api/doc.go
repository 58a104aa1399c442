// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package api provides the admin HTTP API for Guardian.

The API exposes the state of the detection engine and the report pipeline to
operators: tracked entities and their live sequences, stored reports,
violation levels, and the registered detections, which can be toggled and
reconfigured at runtime.

Routing uses chi (github.com/go-chi/chi/v5) with the chi ecosystem for
cross-cutting concerns:

  - chi middleware: RealIP, Recoverer
  - go-chi/cors: CORS with an explicit origin allow-list
  - go-chi/httprate: per-IP rate limiting, looser on health checks
  - internal/middleware: request IDs, Prometheus metrics, gzip

Endpoints:

	GET    /healthz                               liveness and component status
	GET    /metrics                               Prometheus metrics
	GET    /ws                                    live report stream
	GET    /api/v1/stats                          engine counters
	GET    /api/v1/entities                       tracked entities
	GET    /api/v1/entities/{id}/sequences        live sequences of one entity
	POST   /api/v1/entities/{id}/avoid            pause dispatch of one event kind
	DELETE /api/v1/entities/{id}/avoid/{kind}     resume dispatch
	GET    /api/v1/reports                        stored reports (entity, detection, level, limit)
	GET    /api/v1/reports/{id}                   one stored report
	GET    /api/v1/violations                     violation levels
	GET    /api/v1/violations/{id}                violation level of one entity
	GET    /api/v1/detections                     registered detections
	PUT    /api/v1/detections/{name}/enabled      enable or disable a detection
	PUT    /api/v1/detections/{name}/config       replace a detection's configuration
	POST   /api/v1/events                         publish a host event to intake

Engine state is owned by the engine goroutine. Handlers read and mutate it
through EngineQuerier.Query, bounded by Config.QueryTimeout, so a stalled
engine turns into 503 responses instead of hung requests.

All responses share the APIResponse envelope written by ResponseWriter.
Mutating endpoints emit an audit log entry.
*/
package api
