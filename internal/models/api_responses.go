// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
// Status is "success" or "error"; Error is populated only for errors.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"count": 3, "coefficient": 0.87, "defined": true},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - DATABASE_ERROR: Query execution failure
//   - INGEST_ERROR: Ingestion run failure
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PlaysResponse is the payload for the paginated plays listing.
type PlaysResponse struct {
	Plays  []PlayEvent `json:"plays"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// BucketCount is one bar of the categorical display.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// KeyModeCount is one pitch-class bucket split by mode, for the grouped
// key/mode bar display.
type KeyModeCount struct {
	Key   string `json:"key"`
	Major int    `json:"major"`
	Minor int    `json:"minor"`
}
