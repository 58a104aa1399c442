// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"net/http"
)

// NewServer builds the admin HTTP server. The caller runs it under the
// supervisor through services.NewHTTPServerService.
func NewServer(cfg Config, deps Dependencies) *http.Server {
	handler := NewHandler(deps, cfg)
	router := NewRouter(handler, NewChiMiddleware(ChiMiddlewareConfigFrom(cfg)))

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
