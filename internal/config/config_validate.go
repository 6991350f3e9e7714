// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}

	if err := c.validateIngest(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateSpotify validates the Spotify API client configuration.
func (c *Config) validateSpotify() error {
	if c.Spotify.WindowSize < 1 || c.Spotify.WindowSize > 50 {
		return fmt.Errorf("SPOTIFY_WINDOW_SIZE must be between 1 and 50, got %d", c.Spotify.WindowSize)
	}
	if c.Spotify.Timeout <= 0 {
		return fmt.Errorf("SPOTIFY_TIMEOUT must be positive, got %s", c.Spotify.Timeout)
	}
	if c.Spotify.RateLimitPerSec <= 0 {
		return fmt.Errorf("SPOTIFY_RATE_LIMIT_PER_SEC must be positive, got %g", c.Spotify.RateLimitPerSec)
	}
	return nil
}

// validateIngest validates the ingestion loop configuration.
func (c *Config) validateIngest() error {
	if c.Ingest.Interval <= 0 {
		return fmt.Errorf("INGEST_INTERVAL must be positive, got %s", c.Ingest.Interval)
	}
	if c.Ingest.GapThreshold <= 0 {
		return fmt.Errorf("INGEST_GAP_THRESHOLD must be positive, got %s", c.Ingest.GapThreshold)
	}
	if c.Ingest.RetryAttempts < 0 {
		return fmt.Errorf("INGEST_RETRY_ATTEMPTS must not be negative, got %d", c.Ingest.RetryAttempts)
	}
	if c.Ingest.RetryDelay <= 0 {
		return fmt.Errorf("INGEST_RETRY_DELAY must be positive, got %s", c.Ingest.RetryDelay)
	}
	return nil
}

// validateDatabase validates DuckDB configuration.
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

// validateServer validates HTTP server configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must not be negative, got %d", c.Server.RateLimit)
	}
	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
