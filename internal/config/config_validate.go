// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/guardian/internal/intake"
	"github.com/tomtom215/guardian/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateIntake(); err != nil {
		return err
	}

	if err := c.validateReports(); err != nil {
		return err
	}

	return c.validateRunner()
}

// validateIntake validates the NATS settings when the NATS transport is selected.
func (c *Config) validateIntake() error {
	if c.Intake.Transport != intake.TransportNATS {
		return nil
	}
	nats := c.Intake.NATS
	if !nats.Embedded {
		if nats.URL == "" {
			return fmt.Errorf("NATS_URL is required when INTAKE_TRANSPORT=nats and NATS_EMBEDDED=false")
		}
		if err := validateNATSURL(nats.URL); err != nil {
			return fmt.Errorf("NATS_URL: %w", err)
		}
	}
	if nats.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required when INTAKE_TRANSPORT=nats")
	}
	if nats.Embedded && nats.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

// validateReports validates the webhook endpoint.
func (c *Config) validateReports() error {
	if c.Reports.Webhook.URL == "" {
		return nil
	}
	return validateHTTPURL(c.Reports.Webhook.URL, "WEBHOOK_URL")
}

// validateRunner rejects tick intervals that would starve the runner.
func (c *Config) validateRunner() error {
	if c.Server.QueryTimeout > 0 && c.Server.QueryTimeout < c.Runner.TickInterval {
		return fmt.Errorf("QUERY_TIMEOUT (%s) must be at least TICK_INTERVAL (%s)",
			c.Server.QueryTimeout, c.Runner.TickInterval)
	}
	return nil
}

// hasWildcardCORS reports whether any allowed origin is "*".
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports whether the CORS configuration allows any
// origin to drive the admin API.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

// validateHTTPURL validates that a URL is an absolute http or https URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	return nil
}

// validateNATSURL validates that the NATS URL is properly formatted
// Supports: nats://, tls://, and ws:// schemes with IP addresses/hostnames and optional ports
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222, nats.example.com)")
	}

	return nil
}
