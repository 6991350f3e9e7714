// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/metrics"
	"github.com/melograph/melograph/internal/models"
)

// csvPlayRow is the CSV row layout used for import. Export is done natively
// by DuckDB with matching columns.
type csvPlayRow struct {
	TrackID          string  `csv:"track_id"`
	PlayedAt         string  `csv:"played_at"`
	TrackName        string  `csv:"track_name"`
	ArtistName       string  `csv:"artist_name"`
	Danceability     float64 `csv:"danceability"`
	Energy           float64 `csv:"energy"`
	Loudness         float64 `csv:"loudness"`
	Speechiness      float64 `csv:"speechiness"`
	Acousticness     float64 `csv:"acousticness"`
	Instrumentalness float64 `csv:"instrumentalness"`
	Liveness         float64 `csv:"liveness"`
	Valence          float64 `csv:"valence"`
	Tempo            float64 `csv:"tempo"`
	DurationSec      float64 `csv:"duration_s"`
	Key              int     `csv:"key"`
	Mode             int     `csv:"mode"`
	TimeSignature    int     `csv:"time_signature"`
}

// ExportCSV writes all play events to a CSV file using DuckDB's native COPY.
// The output path must end in .csv and live inside an existing directory.
func (db *DB) ExportCSV(ctx context.Context, outputPath string) (err error) {
	if filepath.Ext(outputPath) != ".csv" {
		return fmt.Errorf("output path must have .csv extension: %s", outputPath)
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("export_csv", "play_events", time.Since(start), err)
	}()

	query := `COPY (
		SELECT
			track_id, strftime(played_at, '%Y-%m-%dT%H:%M:%SZ') AS played_at,
			track_name, artist_name,
			danceability, energy, loudness, speechiness, acousticness,
			instrumentalness, liveness, valence, tempo, duration_s,
			key, mode, time_signature
		FROM play_events
		ORDER BY played_at ASC
	) TO ? (FORMAT CSV, HEADER)`

	if _, err = db.conn.ExecContext(ctx, query, outputPath); err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}

	logging.Info().Str("path", outputPath).Msg("Exported play events to CSV")
	return nil
}

// ImportCSV loads play events from a CSV file previously produced by
// ExportCSV. Rows whose identity already exists are skipped. Returns inserted
// and duplicate counts.
func (db *DB) ImportCSV(ctx context.Context, inputPath string) (int, int, error) {
	f, err := os.Open(inputPath) //nolint:gosec // operator-supplied import path
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close import file")
		}
	}()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var events []*models.PlayEvent
	for {
		var row csvPlayRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return 0, 0, fmt.Errorf("failed to decode CSV row: %w", err)
		}

		playedAt, err := time.Parse(time.RFC3339, row.PlayedAt)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid played_at %q: %w", row.PlayedAt, err)
		}

		events = append(events, &models.PlayEvent{
			TrackID:          row.TrackID,
			PlayedAt:         playedAt.UTC(),
			TrackName:        row.TrackName,
			ArtistName:       row.ArtistName,
			Danceability:     row.Danceability,
			Energy:           row.Energy,
			Loudness:         row.Loudness,
			Speechiness:      row.Speechiness,
			Acousticness:     row.Acousticness,
			Instrumentalness: row.Instrumentalness,
			Liveness:         row.Liveness,
			Valence:          row.Valence,
			Tempo:            row.Tempo,
			DurationSec:      row.DurationSec,
			Key:              row.Key,
			Mode:             row.Mode,
			TimeSignature:    row.TimeSignature,
		})
	}

	inserted, duplicates, err := db.InsertPlayEvents(ctx, events)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to insert imported plays: %w", err)
	}

	logging.Info().
		Str("path", inputPath).
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Msg("Imported play events from CSV")
	return inserted, duplicates, nil
}
