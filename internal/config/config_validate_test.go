// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package config

import (
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default configuration should validate: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "window size above cap",
			mutate:  func(c *Config) { c.Spotify.WindowSize = 51 },
			wantErr: "SPOTIFY_WINDOW_SIZE",
		},
		{
			name:    "window size below minimum",
			mutate:  func(c *Config) { c.Spotify.WindowSize = 0 },
			wantErr: "SPOTIFY_WINDOW_SIZE",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Spotify.Timeout = 0 },
			wantErr: "SPOTIFY_TIMEOUT",
		},
		{
			name:    "non-positive rate limit",
			mutate:  func(c *Config) { c.Spotify.RateLimitPerSec = 0 },
			wantErr: "SPOTIFY_RATE_LIMIT_PER_SEC",
		},
		{
			name:    "non-positive interval",
			mutate:  func(c *Config) { c.Ingest.Interval = 0 },
			wantErr: "INGEST_INTERVAL",
		},
		{
			name:    "non-positive gap threshold",
			mutate:  func(c *Config) { c.Ingest.GapThreshold = 0 },
			wantErr: "INGEST_GAP_THRESHOLD",
		},
		{
			name:    "negative retry attempts",
			mutate:  func(c *Config) { c.Ingest.RetryAttempts = -1 },
			wantErr: "INGEST_RETRY_ATTEMPTS",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DUCKDB_PATH",
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 65536 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Server.RateLimit = -1 },
			wantErr: "HTTP_RATE_LIMIT",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not name %s", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_CaseInsensitiveLogging(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.Logging.Format = "Console"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Mixed-case logging values should validate: %v", err)
	}
}
