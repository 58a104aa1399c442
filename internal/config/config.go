// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/guardian/internal/api"
	"github.com/tomtom215/guardian/internal/capture"
	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/engine"
	"github.com/tomtom215/guardian/internal/intake"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/report"
	"github.com/tomtom215/guardian/internal/supervisor"
	"github.com/tomtom215/guardian/internal/world"
)

// Config holds all application configuration.
type Config struct {
	Engine       engine.Config         `koanf:"engine"`
	Runner       engine.RunnerConfig   `koanf:"runner"`
	World        world.MirrorConfig    `koanf:"world"`
	Coefficients capture.Coefficients  `koanf:"coefficients"`
	Detections   DetectionsConfig      `koanf:"detections"`
	Intake       intake.Config         `koanf:"intake"`
	Reports      report.Config         `koanf:"reports"`
	Server       api.Config            `koanf:"server"`
	Logging      LoggingConfig         `koanf:"logging"`
	Supervisor   supervisor.TreeConfig `koanf:"supervisor"`
}

// DetectionConfig holds the startup state of one detection. Settings are
// decoded over the detection's defaults, so only changed keys are needed.
type DetectionConfig struct {
	Enabled  bool                   `koanf:"enabled"`
	Settings map[string]interface{} `koanf:"settings"`
}

// DetectionsConfig holds per-detection startup state.
type DetectionsConfig struct {
	Flight       DetectionConfig `koanf:"flight"`
	Speed        DetectionConfig `koanf:"speed"`
	InvalidState DetectionConfig `koanf:"invalid_state"`
}

// ByName returns the detection configs keyed by detection name.
func (d DetectionsConfig) ByName() map[string]DetectionConfig {
	return map[string]DetectionConfig{
		detection.NameFlight:       d.Flight,
		detection.NameSpeed:        d.Speed,
		detection.NameInvalidState: d.InvalidState,
	}
}

// Apply pushes the startup state into the registry.
func (d DetectionsConfig) Apply(reg *detection.Registry) error {
	for _, bp := range reg.All() {
		dc, ok := d.ByName()[bp.Name()]
		if !ok {
			continue
		}
		bp.SetEnabled(dc.Enabled)
		if len(dc.Settings) == 0 {
			continue
		}
		raw, err := json.Marshal(dc.Settings)
		if err != nil {
			return fmt.Errorf("detections.%s.settings: %w", bp.Name(), err)
		}
		if err := bp.Configure(raw); err != nil {
			return fmt.Errorf("detections.%s.settings: %w", bp.Name(), err)
		}
	}
	return nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to a logging.Config writing to stderr.
func (c LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Level
	if c.Format != "" {
		cfg.Format = c.Format
	}
	cfg.Caller = c.Caller
	cfg.Output = os.Stderr
	return cfg
}

// Load loads configuration from defaults, an optional YAML file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
