// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package services

import (
	"context"
)

// ContextRunner is anything with a blocking, context-aware run loop, such as
// *websocket.Hub.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// ContextService adapts a ContextRunner to suture.Service under a fixed name.
//
// Example usage:
//
//	tree.AddAPIService(services.NewContextService("websocket-hub", hub))
type ContextService struct {
	runner ContextRunner
	name   string
}

// NewContextService wraps runner as a named service.
func NewContextService(name string, runner ContextRunner) *ContextService {
	return &ContextService{runner: runner, name: name}
}

// NewWebSocketHubService wraps a WebSocket hub.
func NewWebSocketHubService(hub ContextRunner) *ContextService {
	return NewContextService("websocket-hub", hub)
}

// Serve implements suture.Service.
func (c *ContextService) Serve(ctx context.Context) error {
	return c.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (c *ContextService) String() string {
	return c.name
}
