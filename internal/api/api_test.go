// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/intake"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/report"
	"github.com/tomtom215/guardian/internal/world"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// directEngine runs queries on the calling goroutine.
type directEngine struct {
	mu sync.Mutex
	e  *engine.Engine
}

func (d *directEngine) Query(ctx context.Context, fn func(*engine.Engine)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.e)
	return nil
}

// stalledEngine never answers.
type stalledEngine struct{}

func (stalledEngine) Query(ctx context.Context, _ func(*engine.Engine)) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*intake.HostEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev *intake.HostEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Events() []*intake.HostEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*intake.HostEvent(nil), p.events...)
}

type testEnv struct {
	t          *testing.T
	engine     *engine.Engine
	mirror     *world.Mirror
	registry   *detection.Registry
	store      *report.Store
	violations *report.ViolationTracker
	publisher  *fakePublisher
	auditBuf   *bytes.Buffer
	deps       Dependencies
	config     Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mirror := world.NewMirror(world.DefaultMirrorConfig())
	env := detection.Env{
		Oracle:       mirror,
		Coefficients: capture.DefaultCoefficients(),
		TickDuration: 50 * time.Millisecond,
	}
	reg, err := detection.NewRegistry(
		detection.NewFlightBlueprint(env),
		detection.NewSpeedBlueprint(env),
		detection.NewInvalidStateBlueprint(env),
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	store, err := report.OpenStore(report.StoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	te := &testEnv{
		t:          t,
		engine:     engine.New(engine.DefaultConfig(), reg, mirror, nil, nil),
		mirror:     mirror,
		registry:   reg,
		store:      store,
		violations: report.NewViolationTracker(report.DefaultViolationConfig()),
		publisher:  &fakePublisher{},
		auditBuf:   &bytes.Buffer{},
		config:     DefaultConfig(),
	}
	te.config.RateLimitDisabled = true
	te.deps = Dependencies{
		Engine:     &directEngine{e: te.engine},
		Detections: reg,
		Oracle:     mirror,
		Store:      store,
		Violations: te.violations,
		Publisher:  te.publisher,
		Audit:      logging.NewAuditLoggerWithLogger(zerolog.New(te.auditBuf)),
		Version:    "test",
	}
	return te
}

func (te *testEnv) router() http.Handler {
	handler := NewHandler(te.deps, te.config)
	return NewRouter(handler, NewChiMiddleware(ChiMiddlewareConfigFrom(te.config))).SetupChi()
}

func (te *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	te.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	te.router().ServeHTTP(rec, req)
	return rec
}

// envelope mirrors APIResponse with a raw payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newReport(entity world.EntityID, id, name string, level detection.Level, severity float64) *detection.Report {
	return &detection.Report{
		ID:         id,
		Detection:  name,
		EntityID:   entity,
		EntityName: "steve",
		Severity:   severity,
		Level:      level,
		CreatedAt:  epoch,
	}
}
