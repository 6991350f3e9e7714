// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package metrics provides Prometheus instrumentation for:
//   - Ingestion runs (plays inserted, duplicates skipped, gaps flagged)
//   - Spotify API calls and error classes
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
//   - Display recomputation
//   - WebSocket connections
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion runs by outcome",
		},
		[]string{"outcome"}, // "success", "error"
	)

	IngestPlaysInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_plays_inserted_total",
			Help: "Total number of play events inserted",
		},
	)

	IngestDuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_duplicates_skipped_total",
			Help: "Total number of already stored play events skipped",
		},
	)

	IngestValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_validation_failures_total",
			Help: "Total number of fetched items dropped by validation",
		},
	)

	IngestGapsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_gaps_detected_total",
			Help: "Total number of runs where history may have been missed",
		},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	IngestLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful ingestion run",
		},
	)

	// Spotify API client metrics
	SpotifyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_requests_total",
			Help: "Total number of Spotify API requests by endpoint",
		},
		[]string{"endpoint"}, // "recently_played", "audio_features"
	)

	SpotifyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_errors_total",
			Help: "Total number of Spotify API errors by class",
		},
		[]string{"endpoint", "class"}, // class: "auth", "transient", "malformed"
	)

	SpotifyRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotify_request_duration_seconds",
			Help:    "Duration of Spotify API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Display pipeline metrics
	DisplayRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "display_recomputes_total",
			Help: "Total number of display recomputations by display",
		},
		[]string{"display"},
	)

	DisplayStaleDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "display_stale_drops_total",
			Help: "Total number of recompute results dropped as superseded",
		},
	)

	DisplayRejectedFilters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "display_rejected_filters_total",
			Help: "Total number of malformed filter updates rejected",
		},
	)

	// WebSocket metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages broadcast to WebSocket clients",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordIngestRun records the outcome of an ingestion run.
func RecordIngestRun(duration time.Duration, inserted, duplicates, validationFailures int, gapDetected bool, err error) {
	IngestDuration.Observe(duration.Seconds())
	if err != nil {
		IngestRuns.WithLabelValues("error").Inc()
		return
	}
	IngestRuns.WithLabelValues("success").Inc()
	IngestPlaysInserted.Add(float64(inserted))
	IngestDuplicatesSkipped.Add(float64(duplicates))
	IngestValidationFailures.Add(float64(validationFailures))
	if gapDetected {
		IngestGapsDetected.Inc()
	}
	IngestLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordSpotifyRequest records a Spotify API call and its error class, if any.
func RecordSpotifyRequest(endpoint string, duration time.Duration, errClass string) {
	SpotifyRequests.WithLabelValues(endpoint).Inc()
	SpotifyRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if errClass != "" {
		SpotifyErrors.WithLabelValues(endpoint, errClass).Inc()
	}
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
