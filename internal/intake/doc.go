// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

/*
Package intake consumes entity events published by the game server and
feeds them to the engine.

Architecture:

	Game server ──► transport (gochannel | NATS JetStream)
	                    │
	                    ▼
	             watermill Router
	   (Recoverer → Retry → Throttle → PoisonQueue)
	                    │
	                    ▼
	                 Handler ──► world.Mirror  (snapshot, block changes)
	                    │
	                    ▼
	              engine.Runner.Submit

Every message carries one HostEvent encoded as JSON. The handler updates the
world mirror first so the engine samples fresh state, then submits the
mapped sequence.Event. Messages that cannot be decoded are acknowledged and
counted, never retried; a full engine inbox is returned as an error so the
Retry middleware backs off.

Transports:

The in-process gochannel transport is always available and is what the
tests use. The NATS JetStream transport, optionally with an embedded
nats-server, requires building with -tags=nats; without the tag NewNATS
returns ErrNATSNotAvailable.
*/
package intake
