// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package config loads and validates Melograph configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in ascending order of precedence.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Export   ExportConfig   `koanf:"export"`
}

// SpotifyConfig holds credentials and limits for the Spotify Web API client.
type SpotifyConfig struct {
	// AccessToken authorizes requests against the Web API.
	AccessToken string `koanf:"access_token"`

	// WindowSize is the maximum items per recently-played request.
	// The API caps this at 50.
	WindowSize int `koanf:"window_size"`

	// Timeout bounds each HTTP request to the API.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitPerSec throttles outgoing API calls.
	RateLimitPerSec float64 `koanf:"rate_limit_per_sec"`
}

// IngestConfig controls the periodic ingestion loop.
type IngestConfig struct {
	// Interval between automatic ingestion runs.
	Interval time.Duration `koanf:"interval"`

	// GapThreshold is the maximum elapsed time since the watermark before a
	// run is flagged as potentially lossy.
	GapThreshold time.Duration `koanf:"gap_threshold"`

	// RetryAttempts is the number of retries for transient fetch failures.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the base delay between retries (doubled each attempt).
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"` // Requests per minute per IP, 0 disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	// Dir is the directory where export files are written.
	Dir string `koanf:"dir"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			AccessToken:     "",
			WindowSize:      50,
			Timeout:         15 * time.Second,
			RateLimitPerSec: 2,
		},
		Ingest: IngestConfig{
			Interval:      30 * time.Minute,
			GapThreshold:  6 * time.Hour,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/melograph.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Export: ExportConfig{
			Dir: "/data/exports",
		},
	}
}
