// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/world"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newReport(entity world.EntityID, name string, level detection.Level, severity float64, at time.Time) *detection.Report {
	return &detection.Report{
		ID:         uuid.NewString(),
		Detection:  name,
		EntityID:   entity,
		EntityName: "steve",
		Severity:   severity,
		Level:      level,
		CreatedAt:  at,
	}
}

// recordingSink collects delivered reports.
type recordingSink struct {
	name string
	err  error

	mu      sync.Mutex
	reports []*detection.Report
	block   chan struct{}
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(ctx context.Context, r *detection.Report) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

var errSink = errors.New("sink failed")
