// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/guardian/internal/middleware"
)

// Router builds the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for handler.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/healthz", router.handler.Health)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).Get("/ws", router.handler.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.Compression)

			r.Get("/stats", router.handler.Stats)
			r.Get("/entities", router.handler.Entities)
			r.Get("/entities/{id}/sequences", router.handler.EntitySequences)
			r.Get("/reports", router.handler.Reports)
			r.Get("/reports/{id}", router.handler.Report)
			r.Get("/violations", router.handler.Violations)
			r.Get("/violations/{id}", router.handler.Violation)
			r.Get("/detections", router.handler.Detections)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))

			r.Post("/entities/{id}/avoid", router.handler.AvoidEntity)
			r.Delete("/entities/{id}/avoid/{kind}", router.handler.ResumeEntity)
			r.Put("/detections/{name}/enabled", router.handler.SetDetectionEnabled)
			r.Put("/detections/{name}/config", router.handler.ConfigureDetection)
		})

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitIngest)).Post("/events", router.handler.IngestEvent)
	})

	return r
}
