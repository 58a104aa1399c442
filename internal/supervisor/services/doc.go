// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package services provides suture.Service wrappers for Guardian components that
do not implement Serve themselves.

The engine runner, intake service, report pipeline, report store and
violation tracker already implement suture.Service and are added to the tree
directly. The wrappers here cover the rest:

HTTP Server (HTTPServerService):
  - Binds the listener up front so bind errors reach the supervisor
  - Graceful Shutdown with a configurable timeout

Context runners (ContextService, NewWebSocketHubService):
  - Adapts any RunWithContext loop, such as the WebSocket hub

Stats broadcaster (StatsBroadcasterService):
  - Queries engine stats on an interval and pushes them to WebSocket clients
  - Skips the query while no client is connected

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

Every wrapper implements fmt.Stringer so suture's log lines name the service.

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
