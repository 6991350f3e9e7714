// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/melograph/melograph/internal/config"
	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/models"
)

// Manager runs the pipeline on a schedule and on demand. Concurrent runs are
// serialized; a manual trigger waits for any in-flight run to finish.
type Manager struct {
	pipeline *Pipeline
	cfg      *config.IngestConfig

	// ingestMu prevents concurrent ingestion runs.
	ingestMu sync.Mutex

	mu          sync.RWMutex
	lastRun     time.Time
	lastReport  *models.IngestionReport
	onCompleted func(report *models.IngestionReport)
}

// NewManager creates a Manager.
func NewManager(pipeline *Pipeline, cfg *config.IngestConfig) *Manager {
	return &Manager{
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// SetOnCompleted registers a callback invoked after each successful run.
// Must be called before Run.
func (m *Manager) SetOnCompleted(callback func(report *models.IngestionReport)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCompleted = callback
}

// Run executes an initial ingestion then loops on the configured interval
// until the context is canceled.
func (m *Manager) Run(ctx context.Context) error {
	logging.Info().
		Dur("interval", m.cfg.Interval).
		Msg("Starting ingestion loop")

	if err := m.TriggerIngest(ctx); err != nil {
		// The loop keeps going; the next tick retries.
		logging.Error().Err(err).Msg("Initial ingestion failed")
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Ingestion loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.TriggerIngest(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled ingestion failed")
			}
		}
	}
}

// TriggerIngest runs one ingestion pass with retries for transient failures.
// Auth and malformed-response failures are returned immediately.
func (m *Manager) TriggerIngest(ctx context.Context) error {
	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()

	var report *models.IngestionReport
	err := m.retryWithBackoff(ctx, func() error {
		var runErr error
		report, runErr = m.pipeline.Ingest(ctx)
		return runErr
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.lastRun = time.Now().UTC()
	m.lastReport = report
	callback := m.onCompleted
	m.mu.Unlock()

	if callback != nil {
		callback(report)
	}
	return nil
}

// LastIngestTime returns when the last successful run finished, zero if none.
func (m *Manager) LastIngestTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}

// LastReport returns the most recent successful ingestion report, nil if no
// run has succeeded yet.
func (m *Manager) LastReport() *models.IngestionReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}

// retryWithBackoff executes fn with exponential backoff on failure. Waits
// are cancellable through the context. Auth and malformed-response errors
// never retry.
func (m *Manager) retryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	delay := m.cfg.RetryDelay
	attempts := m.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}
		if IsAuthError(err) {
			return fmt.Errorf("authorization failed, not retrying: %w", err)
		}
		if IsMalformedError(err) {
			return fmt.Errorf("malformed source response, not retrying: %w", err)
		}

		if attempt < attempts-1 {
			logging.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("max_attempts", attempts).
				Dur("delay", delay).
				Msg("Retrying ingestion")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("max retry attempts reached: %w", err)
}

// ErrNoIngestYet is returned by handlers when no run has completed.
var ErrNoIngestYet = errors.New("no ingestion has completed yet")
