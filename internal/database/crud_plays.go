// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/metrics"
	"github.com/melograph/melograph/internal/models"
)

const playEventColumns = `id, track_id, played_at, track_name, artist_name,
	danceability, energy, loudness, speechiness, acousticness,
	instrumentalness, liveness, valence, tempo, duration_s,
	key, mode, time_signature, created_at`

// InsertPlayEvents inserts a batch of play events inside a single
// transaction. Events whose (track_id, played_at) identity already exists are
// skipped without error. Returns how many rows were inserted and how many
// were skipped as duplicates.
func (db *DB) InsertPlayEvents(ctx context.Context, events []*models.PlayEvent) (inserted int, duplicates int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("insert_batch", "play_events", time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	query := `INSERT INTO play_events (
		id, track_id, played_at, track_name, artist_name,
		danceability, energy, loudness, speechiness, acousticness,
		instrumentalness, liveness, valence, tempo, duration_s,
		key, mode, time_signature, created_at
	) VALUES (
		?, ?, ?, ?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?, ?
	) ON CONFLICT DO NOTHING`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close prepared statement")
		}
	}()

	for _, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now().UTC()
		}

		result, execErr := stmt.ExecContext(ctx,
			event.ID, event.TrackID, event.PlayedAt.UTC(), event.TrackName, event.ArtistName,
			event.Danceability, event.Energy, event.Loudness, event.Speechiness, event.Acousticness,
			event.Instrumentalness, event.Liveness, event.Valence, event.Tempo, event.DurationSec,
			event.Key, event.Mode, event.TimeSignature, event.CreatedAt,
		)
		if execErr != nil {
			err = fmt.Errorf("failed to insert play event %s: %w", event.IdentityKey(), execErr)
			return 0, 0, err
		}

		rowsAffected, rowsErr := result.RowsAffected()
		if rowsErr != nil {
			err = fmt.Errorf("failed to read rows affected: %w", rowsErr)
			return 0, 0, err
		}
		if rowsAffected > 0 {
			inserted++
		} else {
			duplicates++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, duplicates, nil
}

// HasPlay reports whether a play with the given identity is already stored.
func (db *DB) HasPlay(ctx context.Context, trackID string, playedAt time.Time) (bool, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM play_events WHERE track_id = ? AND played_at = ?`,
		trackID, playedAt.UTC(),
	).Scan(&count)
	metrics.RecordDBQuery("has_play", "play_events", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to check play existence: %w", err)
	}
	return count > 0, nil
}

// QueryAll returns every stored play event ordered by played_at ascending.
func (db *DB) QueryAll(ctx context.Context) ([]models.PlayEvent, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playEventColumns+` FROM play_events ORDER BY played_at ASC`)
	metrics.RecordDBQuery("query_all", "play_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query play events: %w", err)
	}
	defer closeRows(rows)

	return scanPlayEvents(rows)
}

// QueryPage returns a page of play events ordered by played_at descending,
// plus the total row count.
func (db *DB) QueryPage(ctx context.Context, limit, offset int) ([]models.PlayEvent, int, error) {
	total, err := db.CountPlays(ctx)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playEventColumns+` FROM play_events ORDER BY played_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	metrics.RecordDBQuery("query_page", "play_events", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query play events page: %w", err)
	}
	defer closeRows(rows)

	events, err := scanPlayEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// CountPlays returns the number of stored play events.
func (db *DB) CountPlays(ctx context.Context) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM play_events`).Scan(&count)
	metrics.RecordDBQuery("count", "play_events", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count play events: %w", err)
	}
	return count, nil
}

// Stats returns aggregate library statistics.
func (db *DB) Stats(ctx context.Context) (*models.LibraryStats, error) {
	start := time.Now()
	stats := &models.LibraryStats{}

	var first, last sql.NullTime
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT track_id),
			COUNT(DISTINCT artist_name),
			MIN(played_at),
			MAX(played_at)
		FROM play_events`,
	).Scan(&stats.TotalPlays, &stats.DistinctTracks, &stats.DistinctArtists, &first, &last)
	metrics.RecordDBQuery("stats", "play_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query library stats: %w", err)
	}

	if first.Valid {
		t := first.Time.UTC()
		stats.FirstPlayedAt = &t
	}
	if last.Valid {
		t := last.Time.UTC()
		stats.LastPlayedAt = &t
	}

	return stats, nil
}

// scanPlayEvents reads all rows into a slice.
func scanPlayEvents(rows *sql.Rows) ([]models.PlayEvent, error) {
	var events []models.PlayEvent
	for rows.Next() {
		var e models.PlayEvent
		if err := rows.Scan(
			&e.ID, &e.TrackID, &e.PlayedAt, &e.TrackName, &e.ArtistName,
			&e.Danceability, &e.Energy, &e.Loudness, &e.Speechiness, &e.Acousticness,
			&e.Instrumentalness, &e.Liveness, &e.Valence, &e.Tempo, &e.DurationSec,
			&e.Key, &e.Mode, &e.TimeSignature, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan play event: %w", err)
		}
		e.PlayedAt = e.PlayedAt.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return events, nil
}

// closeRows closes a result set, logging close failures.
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close result rows")
	}
}
