// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/melograph/melograph/internal/metrics"
)

// watermarkRowID is the single row key of the ingest_watermark table.
const watermarkRowID = 1

// GetWatermark returns the played_at timestamp of the newest ingested play,
// or nil when nothing has been ingested yet.
func (db *DB) GetWatermark(ctx context.Context) (*time.Time, error) {
	start := time.Now()
	var ts time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT newest_played_at FROM ingest_watermark WHERE id = ?`, watermarkRowID,
	).Scan(&ts)
	metrics.RecordDBQuery("get", "ingest_watermark", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read watermark: %w", err)
	}

	ts = ts.UTC()
	return &ts, nil
}

// SetWatermark advances the watermark to the given timestamp. The watermark
// never moves backwards; a stale value is left unchanged.
func (db *DB) SetWatermark(ctx context.Context, newest time.Time) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ingest_watermark (id, newest_played_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			newest_played_at = GREATEST(ingest_watermark.newest_played_at, excluded.newest_played_at),
			updated_at = now()`,
		watermarkRowID, newest.UTC())
	metrics.RecordDBQuery("set", "ingest_watermark", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to set watermark: %w", err)
	}
	return nil
}
