// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

// Package config loads Aquascape configuration with Koanf v2.
//
// Sources are layered with the highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/aquascape/config.yaml)
//  3. Environment variables, including values read from a local .env file
package config

import (
	"strings"
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	Backend  BackendConfig  `koanf:"backend"`
	Auth     AuthConfig     `koanf:"auth"`
	Store    StoreConfig    `koanf:"store"`
	Sensors  SensorsConfig  `koanf:"sensors"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Session  SessionConfig  `koanf:"session"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// BackendConfig describes the external REST backend.
//
// Environment Variables:
//   - BACKEND_URL: base URL, e.g. https://aquascape.onrender.com
//   - BACKEND_TIMEOUT: per-call timeout (default: 30s, generous for cold starts)
//   - BACKEND_RATE_LIMIT: outbound requests per second, 0 disables (default: 0)
//   - BACKEND_RATE_BURST: limiter burst (default: 10)
type BackendConfig struct {
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	RateBurst int           `koanf:"rate_burst"`
	Breaker   BreakerConfig `koanf:"breaker"`
}

// AuthConfig identifies the OIDC provider whose access tokens the
// dashboard presents. Every token is checked against the provider's JWKS
// before its subject selects a session.
//
// Environment Variables:
//   - AUTH_ISSUER: expected iss claim, e.g. https://aquascape.eu.auth0.com/
//   - AUTH_JWKS_URL: signing keys (default: issuer + /.well-known/jwks.json)
//   - AUTH_AUDIENCE: required aud entry; empty skips the audience check
//   - AUTH_ALGORITHMS: accepted signing algorithms (default: RS256)
//   - AUTH_CLOCK_SKEW: leeway when checking exp (default: 30s)
type AuthConfig struct {
	Issuer     string        `koanf:"issuer"`
	JWKSURL    string        `koanf:"jwks_url"`
	Audience   string        `koanf:"audience"`
	Algorithms []string      `koanf:"algorithms"`
	ClockSkew  time.Duration `koanf:"clock_skew"`
}

// KeySetURL returns the JWKS endpoint, derived from the issuer when unset.
func (a AuthConfig) KeySetURL() string {
	if a.JWKSURL != "" {
		return a.JWKSURL
	}
	return strings.TrimSuffix(a.Issuer, "/") + "/.well-known/jwks.json"
}

// BreakerConfig tunes the circuit breaker around backend calls.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// StoreConfig is the aquarium list refresh policy.
type StoreConfig struct {
	RefreshAttempts int           `koanf:"refresh_attempts"`
	RefreshDelay    time.Duration `koanf:"refresh_delay"`
}

// SensorsConfig controls the sensor history chart series.
type SensorsConfig struct {
	Window   int    `koanf:"window"`
	Timezone string `koanf:"timezone"` // IANA name used for HH:MM labels; empty means local time
}

// AlertsConfig controls the danger alert poller.
type AlertsConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	ResolvedTTL  time.Duration `koanf:"resolved_ttl"`
}

// SessionConfig bounds the per-user session registry.
type SessionConfig struct {
	TTL      time.Duration `koanf:"ttl"`
	Capacity int           `koanf:"capacity"`
}

// ServerConfig holds the BFF HTTP server settings.
type ServerConfig struct {
	Port      int           `koanf:"port"`
	Host      string        `koanf:"host"`
	Timeout   time.Duration `koanf:"timeout"`
	StaticDir string        `koanf:"static_dir"`
}

// SecurityConfig holds CORS and inbound rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Location resolves the configured sensor timezone.
func (s SensorsConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}
