// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package report

// Config groups the report sinks' settings.
type Config struct {
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Store     StoreConfig     `koanf:"store"`
	Webhook   NotifierConfig  `koanf:"webhook"`
	Violation ViolationConfig `koanf:"violation"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Pipeline:  DefaultPipelineConfig(),
		Store:     DefaultStoreConfig(),
		Webhook:   DefaultNotifierConfig(),
		Violation: DefaultViolationConfig(),
	}
}
