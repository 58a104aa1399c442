// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

// Package capture implements the per-tick samplers that feed detection
// sequences and the register set they write into.
//
// # Container
//
// A Container maps slot keys ("AltitudeCapture:relative") to values of a small
// closed set of kinds (float, integer, tick count, position, histogram, string
// set). A slot's kind is fixed by its first write, or earlier when the owning
// capture declares it through a Registry. Three write modes exist:
//
//   - Set: overwrite the slot
//   - SetOnce: write only if the slot is empty
//   - Transform: replace the slot with fn(current), using an explicit default
//     when the slot is empty
//
// Histogram and StringSet are immutable; their mutators return new values, so
// a transform never aliases state held by another slot.
//
// # Captures
//
// A Capture reads the tracked entity and the world through world.Oracle and
// updates the slots it owns. Captures never depend on each other's slots and
// may run in any fixed order. Each capture initialises its slots with SetOnce
// and then accumulates with Transform, so calling Apply once per tick is safe.
//
// # Registry
//
// A Registry binds a fixed list of captures to one Container for the lifetime
// of a single sequence. Slot ownership is checked when the registry is built:
// keys must carry the owner's prefix and must not overlap.
package capture
