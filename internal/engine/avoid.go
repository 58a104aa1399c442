// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package engine

import (
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// forever marks an avoid entry that only Resume removes.
const forever int64 = -1

type avoidKey struct {
	entity world.EntityID
	kind   sequence.EventKind
}

// avoidSet suppresses dispatch per (entity, event kind). The index allows
// dropping every entry of an entity without scanning the whole set.
type avoidSet struct {
	until map[avoidKey]int64
	index map[world.EntityID]map[sequence.EventKind]struct{}
}

func newAvoidSet() *avoidSet {
	return &avoidSet{
		until: make(map[avoidKey]int64),
		index: make(map[world.EntityID]map[sequence.EventKind]struct{}),
	}
}

// add suppresses kind for id until tick now+ticks. ticks <= 0 suppresses
// until removed. An existing longer entry is kept.
func (a *avoidSet) add(id world.EntityID, kind sequence.EventKind, now, ticks int64) {
	key := avoidKey{id, kind}
	until := forever
	if ticks > 0 {
		until = now + ticks
	}
	if prev, ok := a.until[key]; ok && (prev == forever || (until != forever && prev >= until)) {
		return
	}
	a.until[key] = until

	kinds, ok := a.index[id]
	if !ok {
		kinds = make(map[sequence.EventKind]struct{})
		a.index[id] = kinds
	}
	kinds[kind] = struct{}{}
}

func (a *avoidSet) remove(id world.EntityID, kind sequence.EventKind) bool {
	key := avoidKey{id, kind}
	if _, ok := a.until[key]; !ok {
		return false
	}
	delete(a.until, key)
	if kinds, ok := a.index[id]; ok {
		delete(kinds, kind)
		if len(kinds) == 0 {
			delete(a.index, id)
		}
	}
	return true
}

// removeEntity drops every entry of id.
func (a *avoidSet) removeEntity(id world.EntityID) int {
	kinds := a.index[id]
	for kind := range kinds {
		delete(a.until, avoidKey{id, kind})
	}
	delete(a.index, id)
	return len(kinds)
}

// active reports whether kind is suppressed for id at tick now. Elapsed
// entries are removed on the way.
func (a *avoidSet) active(id world.EntityID, kind sequence.EventKind, now int64) bool {
	until, ok := a.until[avoidKey{id, kind}]
	if !ok {
		return false
	}
	if until == forever || now < until {
		return true
	}
	a.remove(id, kind)
	return false
}

// sweep removes every elapsed entry.
func (a *avoidSet) sweep(now int64) {
	for key, until := range a.until {
		if until != forever && now >= until {
			a.remove(key.entity, key.kind)
		}
	}
}

// kinds lists the suppressed kinds of id.
func (a *avoidSet) kinds(id world.EntityID) []sequence.EventKind {
	var out []sequence.EventKind
	for _, kind := range sequence.EventKinds() {
		if _, ok := a.index[id][kind]; ok {
			out = append(out, kind)
		}
	}
	return out
}

func (a *avoidSet) len() int { return len(a.until) }
