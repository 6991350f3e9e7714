// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/melograph/melograph/internal/analytics"
	"github.com/melograph/melograph/internal/view"
)

// displayFromRequest resolves the {display} path parameter.
func displayFromRequest(r *http.Request) (view.DisplayID, bool) {
	switch chi.URLParam(r, "display") {
	case string(view.DisplayScatter):
		return view.DisplayScatter, true
	case string(view.DisplayBar):
		return view.DisplayBar, true
	}
	return "", false
}

// DisplayFilter applies a new filter spec to one display. The body is a
// FilterSpec JSON document. Resulting frames are pushed over the WebSocket;
// the response confirms acceptance.
func (h *Handler) DisplayFilter(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	display, ok := displayFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown display", nil)
		return
	}

	var spec analytics.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter body", err)
		return
	}

	if err := h.coordinator.OnFilterChanged(display, spec); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	respondData(w, http.StatusOK, map[string]string{
		"display": string(display),
		"state":   string(h.coordinator.DisplayState(display)),
	}, start)
}

// displayAxesRequest selects axes for the scatter display or a grouping for
// the bar display.
type displayAxesRequest struct {
	X string `json:"x" validate:"required"`
	Y string `json:"y"`
}

// DisplayAxes switches a display's axes or grouping.
func (h *Handler) DisplayAxes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	display, ok := displayFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown display", nil)
		return
	}

	var req displayAxesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid axes body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := h.coordinator.OnAxisChanged(display, req.X, req.Y); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	respondData(w, http.StatusOK, map[string]string{
		"display": string(display),
		"state":   string(h.coordinator.DisplayState(display)),
	}, start)
}

// displayRegressionRequest toggles the regression overlay.
type displayRegressionRequest struct {
	Enabled bool `json:"enabled"`
}

// DisplayRegression enables or disables the regression overlay.
func (h *Handler) DisplayRegression(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req displayRegressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid regression body", err)
		return
	}

	h.coordinator.OnRegressionToggle(req.Enabled)

	respondData(w, http.StatusOK, map[string]bool{"enabled": req.Enabled}, start)
}

// DisplayFrame returns the last published frame for a display. Hover detail
// reads from this without recomputing.
func (h *Handler) DisplayFrame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	display, ok := displayFromRequest(r)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown display", nil)
		return
	}

	frame := h.coordinator.Frame(display)
	if frame == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No frame published yet", nil)
		return
	}

	respondData(w, http.StatusOK, frame, start)
}

// Axes lists the valid scatter axes.
func (h *Handler) Axes(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, analytics.AxisNames(), time.Now())
}
