// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aquascape/config.yaml",
	"/etc/aquascape/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file path.
const DotEnvPathEnvVar = "DOTENV_PATH"

func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:       "",
			Timeout:   30 * time.Second,
			RateLimit: 0,
			RateBurst: 10,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  5,
				FailureRatio: 0.6,
			},
		},
		Auth: AuthConfig{
			Algorithms: []string{"RS256"},
			ClockSkew:  30 * time.Second,
		},
		Store: StoreConfig{
			RefreshAttempts: 2,
			RefreshDelay:    2 * time.Second,
		},
		Sensors: SensorsConfig{
			Window: 8,
		},
		Alerts: AlertsConfig{
			PollInterval: 30 * time.Second,
			ResolvedTTL:  2 * time.Minute,
		},
		Session: SessionConfig{
			TTL:      12 * time.Hour,
			Capacity: 1000,
		},
		Server: ServerConfig{
			Port:      8080,
			Host:      "0.0.0.0",
			Timeout:   60 * time.Second,
			StaticDir: "web/dist",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using the layered approach:
// defaults, then config file, then environment (highest priority).
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"auth.algorithms",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	"backend_url":                   "backend.url",
	"backend_timeout":               "backend.timeout",
	"backend_rate_limit":            "backend.rate_limit",
	"backend_rate_burst":            "backend.rate_burst",
	"backend_breaker_enabled":       "backend.breaker.enabled",
	"backend_breaker_max_requests":  "backend.breaker.max_requests",
	"backend_breaker_interval":      "backend.breaker.interval",
	"backend_breaker_timeout":       "backend.breaker.timeout",
	"backend_breaker_min_requests":  "backend.breaker.min_requests",
	"backend_breaker_failure_ratio": "backend.breaker.failure_ratio",

	"auth_issuer":     "auth.issuer",
	"auth_jwks_url":   "auth.jwks_url",
	"auth_audience":   "auth.audience",
	"auth_algorithms": "auth.algorithms",
	"auth_clock_skew": "auth.clock_skew",

	"store_refresh_attempts": "store.refresh_attempts",
	"store_refresh_delay":    "store.refresh_delay",

	"sensors_window":   "sensors.window",
	"sensors_timezone": "sensors.timezone",

	"alerts_poll_interval": "alerts.poll_interval",
	"alerts_resolved_ttl":  "alerts.resolved_ttl",

	"session_ttl":      "session.ttl",
	"session_capacity": "session.capacity",

	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"static_dir":   "server.static_dir",

	"cors_origins":       "security.cors_origins",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf paths.
//
// Examples:
//   - BACKEND_URL -> backend.url
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
