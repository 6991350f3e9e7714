// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/melograph/melograph/internal/analytics"
	"github.com/melograph/melograph/internal/models"
)

// parseFilterSpec builds a FilterSpec from common query parameters:
// start/end (RFC 3339), tod_start/tod_end (an hour or "HH:MM"), q (name
// substring).
func parseFilterSpec(r *http.Request) (analytics.FilterSpec, *models.APIError) {
	spec := analytics.FilterSpec{}

	from, err := getTimeParam(r, "start")
	if err != nil {
		return spec, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	to, err := getTimeParam(r, "end")
	if err != nil {
		return spec, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	if from != nil || to != nil {
		spec.Range = &analytics.TimeRange{From: from, To: to}
	}

	todStart := r.URL.Query().Get("tod_start")
	todEnd := r.URL.Query().Get("tod_end")
	if todStart != "" || todEnd != "" {
		startHour, startMinute, err := parseClockParam(todStart)
		if err != nil {
			return spec, &models.APIError{Code: "VALIDATION_ERROR", Message: "tod_start must be an hour or HH:MM"}
		}
		endHour, endMinute, err := parseClockParam(todEnd)
		if err != nil {
			return spec, &models.APIError{Code: "VALIDATION_ERROR", Message: "tod_end must be an hour or HH:MM"}
		}
		spec.Hours = &analytics.TimeOfDay{
			Start:       startHour,
			End:         endHour,
			StartMinute: startMinute,
			EndMinute:   endMinute,
		}
	}

	spec.NameQuery = r.URL.Query().Get("q")

	if err := spec.Validate(); err != nil {
		return spec, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
	}

	return spec, nil
}

// parseClockParam accepts a bare hour ("22") or a clock time ("22:30").
// Range checks happen in FilterSpec.Validate.
func parseClockParam(value string) (hour, minute int, err error) {
	hourPart, minutePart, hasMinute := strings.Cut(value, ":")
	hour, err = strconv.Atoi(hourPart)
	if err != nil {
		return 0, 0, err
	}
	if hasMinute {
		minute, err = strconv.Atoi(minutePart)
		if err != nil {
			return 0, 0, err
		}
	}
	return hour, minute, nil
}

// AnalyticsCorrelation computes correlation and optional regression between
// two feature axes over the filtered history.
func (h *Handler) AnalyticsCorrelation(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	start := time.Now()

	xAxis := r.URL.Query().Get("x")
	yAxis := r.URL.Query().Get("y")
	if xAxis == "" || yAxis == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Parameters x and y are required", nil)
		return
	}

	spec, apiErr := parseFilterSpec(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	events, err := h.db.QueryAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load play events", err)
		return
	}

	filtered := spec.Apply(events)

	withRegression := r.URL.Query().Get("regression") != "false"

	scatter, err := analytics.BuildScatter(filtered, xAxis, yAxis)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if !withRegression {
		scatter.Regression = nil
	}

	respondData(w, http.StatusOK, scatter, start)
}

// AnalyticsBuckets returns bucketed counts for a categorical grouping over
// the filtered history.
func (h *Handler) AnalyticsBuckets(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	start := time.Now()

	group := r.URL.Query().Get("group")
	if group == "" {
		group = "artist"
	}

	spec, apiErr := parseFilterSpec(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	events, err := h.db.QueryAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load play events", err)
		return
	}

	filtered := spec.Apply(events)

	var data interface{}
	switch group {
	case "key_mode":
		data = analytics.CountByKeyMode(filtered)
	case "time_signature":
		data = analytics.CountByTimeSignature(filtered)
	case "weekday":
		data = analytics.CountByWeekday(filtered)
	case "artist":
		data = analytics.CountByArtist(filtered)
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"group must be one of key_mode, time_signature, artist, weekday", nil)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"group":   group,
		"count":   len(filtered),
		"buckets": data,
	}, start)
}
