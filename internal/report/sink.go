// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"context"

	"github.com/tomtom215/guardian/internal/detection"
)

// Sink consumes reports.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Send delivers one report.
	Send(ctx context.Context, r *detection.Report) error
}

// Filter selects stored reports. Zero fields match everything.
type Filter struct {
	Entity    string
	Detection string
	MinLevel  detection.Level
	Limit     int
}

// DefaultListLimit caps List when Filter.Limit is zero.
const DefaultListLimit = 100

// Matches reports whether r passes the filter. Limit is not considered.
func (f Filter) Matches(r *detection.Report) bool {
	if f.Entity != "" && r.EntityID.String() != f.Entity {
		return false
	}
	if f.Detection != "" && r.Detection != f.Detection {
		return false
	}
	return r.Level.AtLeast(f.MinLevel)
}
