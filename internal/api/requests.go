// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"time"

	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/sequence"
	"github.com/tomtom215/guardian/internal/world"
)

// AvoidRequest pauses dispatch of one event kind to an entity. Zero ticks
// avoids until resumed.
type AvoidRequest struct {
	Kind  string `json:"kind" validate:"required,event_kind"`
	Ticks int64  `json:"ticks" validate:"min=0,max=1728000"`
}

// EnabledRequest toggles a detection.
type EnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ReportsQuery holds the GET /reports query parameters.
type ReportsQuery struct {
	Entity    string `json:"entity" validate:"omitempty,uuid"`
	Detection string `json:"detection"`
	MinLevel  string `json:"level" validate:"omitempty,oneof=info warning critical"`
	Limit     int    `json:"limit" validate:"min=0,max=1000"`
}

// EntityView describes a tracked entity.
type EntityView struct {
	ID        world.EntityID  `json:"id"`
	Name      string          `json:"name,omitempty"`
	Location  *world.Location `json:"location,omitempty"`
	Live      []string        `json:"live"`
	Avoiding  []string        `json:"avoiding,omitempty"`
	Violation float64         `json:"violation_level"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// SequenceView describes a live sequence.
type SequenceView struct {
	ID        string             `json:"id"`
	Detection string             `json:"detection"`
	State     string             `json:"state"`
	Steps     int                `json:"steps"`
	Remaining int                `json:"remaining"`
	Next      string             `json:"next,omitempty"`
	StartTick int64              `json:"start_tick"`
	StartTime time.Time          `json:"start_time"`
	Origin    world.Location     `json:"origin"`
	Flagged   bool               `json:"flagged"`
	Score     float64            `json:"score"`
	Captures  map[string]float64 `json:"captures,omitempty"`
}

func newSequenceView(o sequence.Outcome) SequenceView {
	return SequenceView{
		ID:        o.ID.String(),
		Detection: o.Detection,
		State:     o.State.String(),
		Steps:     o.Steps,
		Remaining: o.Remaining,
		Next:      o.Next,
		StartTick: o.StartTick,
		StartTime: o.StartTime,
		Origin:    o.Origin,
		Flagged:   o.Flagged,
		Score:     o.Score,
		Captures:  o.Captures,
	}
}

// StatsView combines engine counters with downstream state.
type StatsView struct {
	Engine           engine.Stats `json:"engine"`
	WebSocketClients int          `json:"websocket_clients"`
	StoredReports    *int         `json:"stored_reports,omitempty"`
	FlaggedEntities  int          `json:"flagged_entities"`
}

// AvoidView confirms an avoid rule.
type AvoidView struct {
	EntityID world.EntityID `json:"entity_id"`
	Kind     string         `json:"kind"`
	Ticks    int64          `json:"ticks"`
	Avoiding bool           `json:"avoiding"`
}
