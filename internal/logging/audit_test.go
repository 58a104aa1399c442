// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short", "***"},
		{"exactlytwelv", "***"},
		{"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9", "eyJh...VCJ9"},
		{"1234567890123456", "1234...3456"},
	}

	for _, tt := range tests {
		result := SanitizeToken(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value, expected string
	}{
		{"Authorization", "Bearer abcdefghijklmnop", "Bear...mnop"},
		{"webhook_url", "https://hooks.example.com/abc", "http.../abc"},
		{"detection", "flight", "flight"},
		{"note", strings.Repeat("a", 600), strings.Repeat("a", 500) + "..."},
	}
	for _, tt := range tests {
		if got := SanitizeValue(tt.key, tt.value); got != tt.expected {
			t.Errorf("SanitizeValue(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestAuditLogger_LogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLoggerWithLogger(NewTestLogger(&buf))

	l.LogEvent(&AuditEvent{
		Action:     "detection_configured",
		Target:     "flight",
		RemoteAddr: "10.0.0.1:5000",
		Success:    false,
		Error:      "invalid config",
		Details:    map[string]string{"token": "abcdefghijklmnopqrstuvwxyz"},
	})

	out := buf.String()
	for _, want := range []string{`"component":"audit"`, `"action":"detection_configured"`, `"level":"warn"`, `"token":"abcd...wxyz"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "efghijklmnopqrstuv") {
		t.Error("token should be masked")
	}
}

func TestEventLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewEventLoggerWithLogger(NewTestLogger(&buf))
	ctx := ContextWithCorrelationID(context.Background(), "abc123")

	l.LogEventRejected(ctx, "msg-1", "decode", errors.New("bad json"))
	l.LogPoisoned("msg-2", "guardian.poison", "inbox full")

	out := buf.String()
	for _, want := range []string{`"component":"intake"`, `"correlation_id":"abc123"`, `"reason":"decode"`, `"topic":"guardian.poison"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
