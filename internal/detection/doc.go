// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

// Package detection provides the detection blueprints that the engine turns
// into per-entity sequences, and the Report they produce.
//
// Detection Architecture:
//
//	host event -> Engine -> Blueprint.Build -> Sequence -> Outcome -> Report
//	                                              |
//	                                              v
//	                                      Captures (per tick)
//
// Each blueprint describes an ordered list of actions (observe a trigger,
// wait a window, re-check periodically) and the captures its conditions read.
// A sequence that reaches FINISHED has confirmed the anomaly; its raw score
// is mapped to a severity through the blueprint's Curve and classified into
// a Level.
//
// Supported Blueprints:
//   - Flight: airborne without permission and not descending as gravity
//     requires over the window
//   - Speed: horizontal displacement over the window exceeds the budget
//     derived from control state, effects and surface material
//   - Invalid State: mutually exclusive control flags held over repeated
//     periodic checks
//
// Blueprints are safe for concurrent use: the engine builds plans on its own
// goroutine while the admin API toggles and reconfigures them.
package detection
