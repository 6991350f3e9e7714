// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package models defines data structures used throughout the Melograph application.
// These models represent play events, audio features, ingestion reports, and API responses.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayEvent represents a single listening event joined with the audio features
// of the played track.
//
// This is the core data model. The natural identity of an event is the pair
// (TrackID, PlayedAt): the same track can be replayed at a different time, but
// Spotify never reports two plays of the same track at the same instant. The
// store enforces a unique constraint on that pair, and the ingestion pipeline
// pre-checks it, so the event log is append-only and duplicate-free.
//
// PlayedAt is always normalized to UTC before the event enters the pipeline.
// Events are immutable once stored: listening history is a fact log.
//
// Audio features are the fixed set produced by the Spotify features endpoint.
// The bounded measures (danceability, energy, speechiness, acousticness,
// instrumentalness, liveness, valence) are reals in [0, 1]; loudness is in dB
// (typically -60..0); tempo is in BPM. Key follows standard pitch-class
// mapping (0 = C .. 11 = B), Mode is 0 (minor) or 1 (major), and
// TimeSignature is the approximate beats per bar (2-9 as reported).
type PlayEvent struct {
	ID uuid.UUID `json:"id"`

	// Identity
	TrackID  string    `json:"track_id"`
	PlayedAt time.Time `json:"played_at"`

	// Track metadata
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`

	// Audio features (continuous)
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	DurationSec      float64 `json:"duration_s"`

	// Audio features (categorical)
	Key           int `json:"key"`
	Mode          int `json:"mode"`
	TimeSignature int `json:"time_signature"`

	CreatedAt time.Time `json:"created_at"`
}

// IdentityKey returns the dedup key for the event. Two events with the same
// identity key are the same play.
func (e *PlayEvent) IdentityKey() string {
	return e.TrackID + "|" + e.PlayedAt.UTC().Format(time.RFC3339Nano)
}

// IngestionReport summarizes one ingestion run.
//
// A run with no new remote data reports all-zero counts and GapDetected false;
// repeated invocation is idempotent. GapDetected means the source's bounded
// recent window could not have covered everything played since the previous
// watermark - the missing plays are unrecoverable, so the gap is reported
// rather than retried.
type IngestionReport struct {
	InsertedCount          int        `json:"inserted_count"`
	DuplicateCount         int        `json:"duplicate_count"`
	ValidationFailureCount int        `json:"validation_failure_count"`
	GapDetected            bool       `json:"gap_detected"`
	Watermark              *time.Time `json:"watermark,omitempty"`
	StartedAt              time.Time  `json:"started_at"`
	DurationMS             int64      `json:"duration_ms"`
}

// Regression holds ordinary-least-squares fit parameters of y on x.
// RSquared equals the square of the Pearson coefficient in the bivariate case.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// AnalyticsResult holds derived statistics computed over a filtered subset of
// the event log. It is recomputed on every filter change and never stored.
//
// Defined is false when the coefficient is mathematically undefined (fewer
// than 2 points, or zero variance in either attribute). An undefined result
// is reported as such - it is never coerced to zero. Regression is nil unless
// requested and defined.
type AnalyticsResult struct {
	Count       int         `json:"count"`
	Coefficient float64     `json:"coefficient"`
	Defined     bool        `json:"defined"`
	Regression  *Regression `json:"regression,omitempty"`
}

// LibraryStats represents summary statistics over the whole event log.
type LibraryStats struct {
	TotalPlays      int64      `json:"total_plays"`
	DistinctTracks  int64      `json:"distinct_tracks"`
	DistinctArtists int64      `json:"distinct_artists"`
	FirstPlayedAt   *time.Time `json:"first_played_at,omitempty"`
	LastPlayedAt    *time.Time `json:"last_played_at,omitempty"`
	LastIngestTime  *time.Time `json:"last_ingest_time,omitempty"`
}
