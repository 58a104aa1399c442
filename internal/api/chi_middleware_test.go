// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/tomtom215/guardian/internal/websocket"
)

func TestRateLimit(t *testing.T) {
	te := newTestEnv(t)
	te.config.RateLimitDisabled = false
	te.config.RateLimitRequests = 2
	te.config.RateLimitWindow = time.Minute
	router := te.router()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/detections", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 {
			expectErrorCode(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("codes = %v, want the first two allowed", codes)
	}

	// Other clients have their own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/detections", nil)
	req.RemoteAddr = "192.0.2.11:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
}

func TestCORS(t *testing.T) {
	te := newTestEnv(t)
	te.config.CORSOrigins = []string{"https://panel.example"}
	router := te.router()

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "https://panel.example", "https://panel.example"},
		{"other origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/detections", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	te := newTestEnv(t)

	rec := te.do(http.MethodGet, "/api/v1/detections", "")
	expectStatus(t, rec, http.StatusOK)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS sent over plain HTTP")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"missing origin", nil, "", false},
		{"same host without allow list", nil, "http://guardian.local:8080", true},
		{"other host without allow list", nil, "http://evil.example", false},
		{"listed origin", []string{"https://panel.example"}, "https://panel.example", true},
		{"unlisted origin", []string{"https://panel.example"}, "http://guardian.local:8080", false},
		{"wildcard", []string{"*"}, "https://anything.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CORSOrigins = tt.origins
			h := NewHandler(Dependencies{}, cfg)

			req := httptest.NewRequest(http.MethodGet, "http://guardian.local:8080/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket(t *testing.T) {
	te := newTestEnv(t)
	hub := ws.NewHub()
	te.deps.Hub = hub

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := httptest.NewServer(te.router())
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("dial with foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin response = %v, want 403", resp)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	header.Set("Origin", srv.URL)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = resp.Body.Close()
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want 1", hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	te := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	te.router().ServeHTTP(rec, req)
	expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestNewServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9090

	srv := NewServer(cfg, Dependencies{})
	if srv.Addr != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.ReadTimeout != cfg.ReadTimeout || srv.WriteTimeout != cfg.WriteTimeout || srv.IdleTimeout != cfg.IdleTimeout {
		t.Errorf("timeouts not applied: %+v", srv)
	}
	if srv.Handler == nil {
		t.Fatal("Handler is nil")
	}
}
