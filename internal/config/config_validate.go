// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/aquascape/internal/logging"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateBackend,
		c.validateAuth,
		c.validateStore,
		c.validateSensors,
		c.validateAlerts,
		c.validateSession,
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("BACKEND_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("BACKEND_URL must include a host")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("BACKEND_RATE_LIMIT must not be negative")
	}
	if c.Backend.RateLimit > 0 && c.Backend.RateBurst < 1 {
		return fmt.Errorf("BACKEND_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.Backend.Breaker.Enabled {
		if c.Backend.Breaker.FailureRatio <= 0 || c.Backend.Breaker.FailureRatio > 1 {
			return fmt.Errorf("BACKEND_BREAKER_FAILURE_RATIO must be in (0, 1]")
		}
	}
	return nil
}

var supportedAlgorithms = map[string]bool{
	"RS256": true, "RS384": true, "RS512": true,
	"PS256": true, "PS384": true, "PS512": true,
	"ES256": true, "ES384": true, "ES512": true,
	"EdDSA": true,
}

func (c *Config) validateAuth() error {
	if c.Auth.Issuer == "" {
		return fmt.Errorf("AUTH_ISSUER is required")
	}
	for name, raw := range map[string]string{"AUTH_ISSUER": c.Auth.Issuer, "AUTH_JWKS_URL": c.Auth.KeySetURL()} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an http or https URL, got %q", name, raw)
		}
	}
	if len(c.Auth.Algorithms) == 0 {
		return fmt.Errorf("AUTH_ALGORITHMS must list at least one algorithm")
	}
	for _, alg := range c.Auth.Algorithms {
		if !supportedAlgorithms[alg] {
			return fmt.Errorf("AUTH_ALGORITHMS entry %q is not an asymmetric JWS algorithm", alg)
		}
	}
	if c.Auth.ClockSkew < 0 {
		return fmt.Errorf("AUTH_CLOCK_SKEW must not be negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.RefreshAttempts < 1 {
		return fmt.Errorf("STORE_REFRESH_ATTEMPTS must be at least 1")
	}
	if c.Store.RefreshDelay < 0 {
		return fmt.Errorf("STORE_REFRESH_DELAY must not be negative")
	}
	return nil
}

func (c *Config) validateSensors() error {
	if c.Sensors.Window < 1 {
		return fmt.Errorf("SENSORS_WINDOW must be at least 1")
	}
	if _, err := c.Sensors.Location(); err != nil {
		return fmt.Errorf("SENSORS_TIMEZONE is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateAlerts() error {
	if c.Alerts.PollInterval < time.Second {
		return fmt.Errorf("ALERTS_POLL_INTERVAL must be at least 1s")
	}
	if c.Alerts.ResolvedTTL < 0 {
		return fmt.Errorf("ALERTS_RESOLVED_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.Capacity < 1 {
		return fmt.Errorf("SESSION_CAPACITY must be at least 1")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", origin)
		}
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
