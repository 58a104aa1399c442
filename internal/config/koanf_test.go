// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/structs"

	"github.com/tomtom215/guardian/internal/intake"
)

// isolate runs the test in an empty directory with no config file.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	})
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "guardian.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestDefaultConfig verifies that defaultConfig() returns valid defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Runner.TickInterval != 50*time.Millisecond {
		t.Errorf("Runner.TickInterval = %v, want 50ms", cfg.Runner.TickInterval)
	}
	if cfg.Intake.Transport != intake.TransportChannel {
		t.Errorf("Intake.Transport = %q, want channel", cfg.Intake.Transport)
	}
	for name, dc := range cfg.Detections.ByName() {
		if !dc.Enabled {
			t.Errorf("detection %s should be enabled by default", name)
		}
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"http_port", "server.port"},
		{"TICK_INTERVAL", "runner.tick_interval"},
		{"NATS_URL", "intake.nats.url"},
		{"WEBHOOK_URL", "reports.webhook.url"},
		{"DETECTION_SPEED_ENABLED", "detections.speed.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestEnvMappings_TargetsExist(t *testing.T) {
	k := GetKoanfInstance()
	cfg := defaultConfig()
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for env, path := range envMappings {
		if !k.Exists(path) {
			t.Errorf("%s maps to unknown path %q", strings.ToUpper(env), path)
		}
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	t.Run("no config file exists", func(t *testing.T) {
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}
		defer os.Remove(path)

		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		custom := writeConfig(t, dir, "logging:\n  level: info\n")
		t.Setenv(ConfigPathEnvVar, custom)

		if result := findConfigFile(); result != custom {
			t.Errorf("findConfigFile() = %q, want %q", result, custom)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")

		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TICK_INTERVAL", "100ms")
	t.Setenv("DETECTION_FLIGHT_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "https://panel.example, https://ops.example")
	t.Setenv("DISABLE_RATE_LIMIT", "true")
	t.Setenv("SUPERVISOR_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Runner.TickInterval != 100*time.Millisecond {
		t.Errorf("Runner.TickInterval = %v, want 100ms", cfg.Runner.TickInterval)
	}
	if cfg.Detections.Flight.Enabled {
		t.Error("Detections.Flight.Enabled should be false")
	}
	if !cfg.Detections.Speed.Enabled {
		t.Error("Detections.Speed.Enabled should keep its default")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://ops.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Server.RateLimitDisabled {
		t.Error("Server.RateLimitDisabled should be true")
	}
	if cfg.Supervisor.ShutdownTimeout != 30*time.Second {
		t.Errorf("Supervisor.ShutdownTimeout = %v, want 30s", cfg.Supervisor.ShutdownTimeout)
	}

	// Defaults are still applied for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Coefficients.Materials["ice"] != 1.6 {
		t.Errorf("Coefficients.Materials[ice] = %v, want 1.6 (default)", cfg.Coefficients.Materials["ice"])
	}
}

// TestLoadWithKoanfConfigFile tests loading configuration from a YAML file
func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
server:
  port: 8888
  host: "127.0.0.1"

intake:
  transport: nats
  nats:
    embedded: true

detections:
  speed:
    enabled: true
    settings:
      tolerance: 0.05

logging:
  level: "warn"
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %s, want 127.0.0.1:8888", cfg.Server.Addr())
	}
	if cfg.Intake.Transport != intake.TransportNATS || !cfg.Intake.NATS.Embedded {
		t.Errorf("Intake = %+v", cfg.Intake)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if got := cfg.Detections.Speed.Settings["tolerance"]; got != 0.05 {
		t.Errorf("Detections.Speed.Settings[tolerance] = %v, want 0.05", got)
	}

	// Defaults are still applied for unset values
	if cfg.Intake.NATS.StreamName != "GUARDIAN" {
		t.Errorf("Intake.NATS.StreamName = %q, want GUARDIAN (default)", cfg.Intake.NATS.StreamName)
	}
	if cfg.Reports.Store.Path != "/data/reports" {
		t.Errorf("Reports.Store.Path = %q, want /data/reports (default)", cfg.Reports.Store.Path)
	}
}

// TestLoadWithKoanfEnvOverridesFile tests that env vars override config file
func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
server:
  port: 8888
logging:
  level: "warn"
`)
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REPORT_STORE_PATH", "/custom/reports")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Reports.Store.Path != "/custom/reports" {
		t.Errorf("Reports.Store.Path = %q, want /custom/reports (env override)", cfg.Reports.Store.Path)
	}
}

// TestLoadWithKoanfValidation tests that validation still works
func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		errMsg  string
	}{
		{
			name:    "invalid log level",
			envVars: map[string]string{"LOG_LEVEL": "verbose"},
			errMsg:  "level",
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"HTTP_PORT": "70000"},
			errMsg:  "port",
		},
		{
			name:    "unknown transport",
			envVars: map[string]string{"INTAKE_TRANSPORT": "kafka"},
			errMsg:  "transport",
		},
		{
			name:    "nats url with wrong scheme",
			envVars: map[string]string{"INTAKE_TRANSPORT": "nats", "NATS_URL": "http://nats.local:4222"},
			errMsg:  "NATS_URL",
		},
		{
			name:    "webhook url with wrong scheme",
			envVars: map[string]string{"WEBHOOK_URL": "ftp://hooks.example/guardian"},
			errMsg:  "WEBHOOK_URL",
		},
		{
			name:    "store without path",
			envVars: map[string]string{"REPORT_STORE_PATH": ""},
			errMsg:  "path",
		},
		{
			name:    "query timeout below tick interval",
			envVars: map[string]string{"QUERY_TIMEOUT": "10ms"},
			errMsg:  "QUERY_TIMEOUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatal("LoadWithKoanf() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoadWithKoanfInMemoryStore(t *testing.T) {
	isolate(t)
	t.Setenv("REPORT_STORE_PATH", "")
	t.Setenv("REPORT_STORE_IN_MEMORY", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !cfg.Reports.Store.InMemory {
		t.Error("Reports.Store.InMemory should be true")
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("default CORS should not warn")
	}
	cfg.Server.CORSOrigins = []string{"https://panel.example", "*"}
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("wildcard CORS should warn")
	}
}

func TestGetKoanfInstance(t *testing.T) {
	k := GetKoanfInstance()
	if k == nil {
		t.Fatal("GetKoanfInstance() returned nil")
	}
	if len(k.Keys()) != 0 {
		t.Errorf("new instance should be empty, got %v", k.Keys())
	}
}
