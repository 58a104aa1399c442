// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package supervisor provides process supervision for Guardian using suture v4.

Every long-running component of the server runs as a suture.Service inside a
three-layer tree:

	RootSupervisor ("guardian")
	├── CoreSupervisor ("core-layer")
	│   ├── engine.Runner           (tick loop and event dispatch)
	│   ├── report.Pipeline         (fan-out to sinks)
	│   ├── report.Store            (retention GC)
	│   └── report.ViolationTracker (score decay)
	├── IntakeSupervisor ("intake-layer")
	│   └── intake.Service          (watermill router feeding the engine)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService
	    ├── WebSocketHubService
	    └── StatsBroadcasterService

A crashing intake transport is restarted without touching tracked entity
state, and a failing HTTP listener never stalls detection.

# Usage

	tree, err := supervisor.NewSupervisorTree(logger, cfg.Supervisor)
	if err != nil {
	    return err
	}
	tree.AddCoreService(runner)
	tree.AddIntakeService(intakeSvc)
	tree.AddAPIService(services.NewHTTPServerService(server, timeout))

	if err := tree.Serve(ctx); err != nil {
	    logging.Error().Err(err).Msg("supervisor stopped")
	}

# Configuration

TreeConfig controls restart behavior. Zero fields take suture's defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

Services return nil to stop for good, an error to be restarted, and should
return promptly once their context is canceled. UnstoppedServiceReport lists
services that missed the shutdown timeout.

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
