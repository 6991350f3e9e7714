// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package api provides the HTTP surface: library stats and plays, manual
// ingestion triggers, analytics queries, CSV export, display control, and
// the WebSocket session endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/melograph/melograph/internal/config"
	"github.com/melograph/melograph/internal/database"
	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/models"
	"github.com/melograph/melograph/internal/view"
	ws "github.com/melograph/melograph/internal/websocket"
)

// IngestManager is the subset of the ingestion manager handlers need.
type IngestManager interface {
	TriggerIngest(ctx context.Context) error
	LastIngestTime() time.Time
	LastReport() *models.IngestionReport
}

// Handler serves all API endpoints.
type Handler struct {
	db          *database.DB
	manager     IngestManager
	coordinator *view.Coordinator
	hub         *ws.Hub
	cfg         *config.Config
	upgrader    websocket.Upgrader
	startTime   time.Time
}

// NewHandler creates a Handler.
func NewHandler(db *database.DB, manager IngestManager, coordinator *view.Coordinator, hub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		db:          db,
		manager:     manager,
		coordinator: coordinator,
		hub:         hub,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		startTime: time.Now().UTC(),
	}
}

// requireDB checks database availability, responding 503 when unavailable.
func (h *Handler) requireDB(w http.ResponseWriter) bool {
	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database not available", nil)
		return false
	}
	return true
}

// Health reports overall service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := "healthy"
	httpStatus := http.StatusOK
	if h.db == nil || h.db.Ping(r.Context()) != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	respondData(w, httpStatus, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"clients":        h.hub.ClientCount(),
	}, start)
}

// HealthLive is the liveness probe; it succeeds while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady is the readiness probe; it requires a reachable database.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.db == nil || h.db.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database not ready", nil)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"}, start)
}

// Stats returns aggregate library statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	start := time.Now()

	stats, err := h.db.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query statistics", err)
		return
	}

	if last := h.manager.LastIngestTime(); !last.IsZero() {
		stats.LastIngestTime = &last
	}

	respondData(w, http.StatusOK, stats, start)
}

// playsRequest carries validated pagination parameters.
type playsRequest struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0"`
}

// Plays returns a page of play history, newest first.
func (h *Handler) Plays(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	start := time.Now()

	req := playsRequest{
		Limit:  getIntParam(r, "limit", 100),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	plays, total, err := h.db.QueryPage(r.Context(), req.Limit, req.Offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query plays", err)
		return
	}

	respondData(w, http.StatusOK, &models.PlaysResponse{
		Plays:  plays,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, start)
}

// TriggerIngest runs a manual ingestion pass synchronously.
func (h *Handler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.manager.TriggerIngest(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, "INGEST_ERROR", "Ingestion failed", err)
		return
	}

	respondData(w, http.StatusOK, h.manager.LastReport(), start)
}

// LastIngest returns the most recent ingestion report.
func (h *Handler) LastIngest(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()

	report := h.manager.LastReport()
	if report == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No ingestion has completed yet", nil)
		return
	}

	respondData(w, http.StatusOK, report, start)
}

// Export streams the full play history as a CSV download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}

	if err := os.MkdirAll(h.cfg.Export.Dir, 0o750); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to prepare export directory", err)
		return
	}

	filename := fmt.Sprintf("melograph-%s.csv", time.Now().UTC().Format("20060102-150405"))
	outputPath := filepath.Join(h.cfg.Export.Dir, filename)

	if err := h.db.ExportCSV(r.Context(), outputPath); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Export failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, outputPath)
}

// WebSocket upgrades the connection and attaches the client to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
