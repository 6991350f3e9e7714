// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package ingest pulls the recently-played window from the listening source,
// joins audio features, deduplicates against stored history, and advances
// the ingestion watermark.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/metrics"
	"github.com/melograph/melograph/internal/models"
	"github.com/melograph/melograph/internal/spotify"
)

// Source supplies the playback window and track features.
type Source interface {
	RecentlyPlayed(ctx context.Context, after time.Time) ([]spotify.PlayItem, error)
	AudioFeaturesBatch(ctx context.Context, ids []string) (map[string]spotify.AudioFeatures, error)
}

// Store persists play events and the watermark.
type Store interface {
	InsertPlayEvents(ctx context.Context, events []*models.PlayEvent) (inserted int, duplicates int, err error)
	GetWatermark(ctx context.Context) (*time.Time, error)
	SetWatermark(ctx context.Context, newest time.Time) error
}

// Pipeline runs a single ingestion pass. Safe for use by one goroutine at a
// time; the Manager serializes runs.
type Pipeline struct {
	source     Source
	store      Store
	windowSize int
	gapAfter   time.Duration

	// featureCache avoids refetching analysis for tracks seen in earlier
	// runs. Features are immutable per track.
	featureMu    sync.Mutex
	featureCache map[string]spotify.AudioFeatures
}

// NewPipeline creates a Pipeline.
func NewPipeline(source Source, store Store, windowSize int, gapAfter time.Duration) *Pipeline {
	return &Pipeline{
		source:       source,
		store:        store,
		windowSize:   windowSize,
		gapAfter:     gapAfter,
		featureCache: make(map[string]spotify.AudioFeatures),
	}
}

// Ingest performs one full ingestion pass and reports what happened. The
// report is valid whenever err is nil; duplicates and validation failures
// are counted, not fatal.
func (p *Pipeline) Ingest(ctx context.Context) (report *models.IngestionReport, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		if report != nil {
			metrics.RecordIngestRun(time.Since(startedAt), report.InsertedCount,
				report.DuplicateCount, report.ValidationFailureCount, report.GapDetected, err)
		} else {
			metrics.RecordIngestRun(time.Since(startedAt), 0, 0, 0, false, err)
		}
	}()

	watermark, err := p.store.GetWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermark: %w", err)
	}

	var after time.Time
	if watermark != nil {
		after = *watermark
	}

	items, err := p.source.RecentlyPlayed(ctx, after)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recently played: %w", err)
	}

	report = &models.IngestionReport{
		StartedAt: startedAt,
		Watermark: watermark,
	}

	valid, dropped := validateItems(items)
	report.ValidationFailureCount = dropped

	// The API returns newest first; processing runs oldest first so a
	// partial failure never leaves a hole below the watermark.
	sort.Slice(valid, func(i, j int) bool {
		return valid[i].PlayedAt.Before(valid[j].PlayedAt)
	})

	report.GapDetected = p.detectGap(valid, watermark, len(items), startedAt)

	events, missingFeatures, joinErr := p.joinFeatures(ctx, valid)
	if joinErr != nil {
		return nil, fmt.Errorf("failed to join audio features: %w", joinErr)
	}
	report.ValidationFailureCount += missingFeatures

	events = dedupeBatch(events)

	inserted, duplicates, err := p.store.InsertPlayEvents(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("failed to store play events: %w", err)
	}
	report.InsertedCount = inserted
	report.DuplicateCount = duplicates

	if len(events) > 0 {
		newest := events[len(events)-1].PlayedAt
		if err := p.store.SetWatermark(ctx, newest); err != nil {
			return nil, fmt.Errorf("failed to advance watermark: %w", err)
		}
		report.Watermark = &newest
	}

	report.DurationMS = time.Since(startedAt).Milliseconds()

	logging.Info().
		Int("inserted", report.InsertedCount).
		Int("duplicates", report.DuplicateCount).
		Int("validation_failures", report.ValidationFailureCount).
		Bool("gap_detected", report.GapDetected).
		Int64("duration_ms", report.DurationMS).
		Msg("Ingestion completed")

	return report, nil
}

// validateItems drops items that cannot form a stored play event.
func validateItems(items []spotify.PlayItem) (valid []spotify.PlayItem, dropped int) {
	valid = make([]spotify.PlayItem, 0, len(items))
	for _, item := range items {
		if item.Track.ID == "" || item.Track.Name == "" || item.PlayedAt.IsZero() {
			dropped++
			continue
		}
		valid = append(valid, item)
	}
	return valid, dropped
}

// detectGap applies the gap heuristic: history may have been missed when the
// fetch window came back full and its oldest item already postdates the
// watermark, or when too much time passed since the last successful run.
func (p *Pipeline) detectGap(valid []spotify.PlayItem, watermark *time.Time, fetched int, now time.Time) bool {
	if watermark == nil {
		// First run has no baseline to miss against.
		return false
	}

	if fetched >= p.windowSize && len(valid) > 0 {
		oldest := valid[0].PlayedAt
		if oldest.After(*watermark) {
			logging.Warn().
				Time("watermark", *watermark).
				Time("oldest_fetched", oldest).
				Msg("Full window starts after watermark, plays may be missing")
			return true
		}
	}

	if p.gapAfter > 0 && now.Sub(*watermark) > p.gapAfter {
		logging.Warn().
			Time("watermark", *watermark).
			Dur("elapsed", now.Sub(*watermark)).
			Dur("threshold", p.gapAfter).
			Msg("Watermark is stale, plays may be missing")
		return true
	}

	return false
}

// joinFeatures builds full play events by attaching audio features, fetching
// only tracks absent from the cache. A play whose track has no analysis is
// incomplete; it is dropped and counted as a validation failure.
func (p *Pipeline) joinFeatures(ctx context.Context, items []spotify.PlayItem) ([]*models.PlayEvent, int, error) {
	missing := p.missingTrackIDs(items)

	if len(missing) > 0 {
		fetched, err := p.source.AudioFeaturesBatch(ctx, missing)
		if err != nil {
			return nil, 0, err
		}
		p.featureMu.Lock()
		for id, f := range fetched {
			p.featureCache[id] = f
		}
		p.featureMu.Unlock()
	}

	p.featureMu.Lock()
	defer p.featureMu.Unlock()

	dropped := 0
	events := make([]*models.PlayEvent, 0, len(items))
	for _, item := range items {
		f, ok := p.featureCache[item.Track.ID]
		if !ok {
			dropped++
			logging.Warn().
				Str("track_id", item.Track.ID).
				Str("track_name", item.Track.Name).
				Msg("No audio features for track, dropping play")
			continue
		}
		events = append(events, &models.PlayEvent{
			TrackID:          item.Track.ID,
			PlayedAt:         item.PlayedAt.UTC(),
			TrackName:        item.Track.Name,
			ArtistName:       item.Track.ArtistName(),
			Danceability:     f.Danceability,
			Energy:           f.Energy,
			Loudness:         f.Loudness,
			Speechiness:      f.Speechiness,
			Acousticness:     f.Acousticness,
			Instrumentalness: f.Instrumentalness,
			Liveness:         f.Liveness,
			Valence:          f.Valence,
			Tempo:            f.Tempo,
			DurationSec:      float64(f.DurationMS) / 1000.0,
			Key:              f.Key,
			Mode:             f.Mode,
			TimeSignature:    f.TimeSignature,
		})
	}
	return events, dropped, nil
}

// missingTrackIDs returns the distinct track IDs not yet in the cache.
func (p *Pipeline) missingTrackIDs(items []spotify.PlayItem) []string {
	p.featureMu.Lock()
	defer p.featureMu.Unlock()

	seen := make(map[string]bool, len(items))
	var missing []string
	for _, item := range items {
		id := item.Track.ID
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := p.featureCache[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// dedupeBatch drops in-batch repeats of the same (track, played_at)
// identity, keeping the first occurrence. The store's unique constraint
// catches cross-run repeats.
func dedupeBatch(events []*models.PlayEvent) []*models.PlayEvent {
	seen := make(map[string]bool, len(events))
	out := events[:0]
	for _, e := range events {
		key := e.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// IsAuthError reports whether an ingestion failure traces back to
// authorization, which retries cannot fix.
func IsAuthError(err error) bool {
	return errors.Is(err, spotify.ErrAuth)
}

// IsMalformedError reports whether an ingestion failure traces back to a
// malformed source response, which retries cannot fix.
func IsMalformedError(err error) bool {
	return errors.Is(err, spotify.ErrMalformed)
}
