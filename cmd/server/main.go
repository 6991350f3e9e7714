// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Melograph server: ingests listening history from the Spotify Web API into
// DuckDB and serves interactive analytics over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/melograph/melograph/internal/api"
	"github.com/melograph/melograph/internal/config"
	"github.com/melograph/melograph/internal/database"
	"github.com/melograph/melograph/internal/ingest"
	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/models"
	"github.com/melograph/melograph/internal/spotify"
	"github.com/melograph/melograph/internal/supervisor"
	"github.com/melograph/melograph/internal/supervisor/services"
	"github.com/melograph/melograph/internal/view"
	ws "github.com/melograph/melograph/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Dur("ingest_interval", cfg.Ingest.Interval).
		Msg("Starting Melograph")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// Spotify client behind a circuit breaker so a dead API fails fast.
	client := spotify.NewCircuitBreakerClient(spotify.NewClient(&cfg.Spotify))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	wsHub := ws.NewHub()

	coordinator := view.NewCoordinator(view.NewWSRenderer(wsHub, ws.MessageTypeDisplayFrame))

	pipeline := ingest.NewPipeline(client, db, cfg.Spotify.WindowSize, cfg.Ingest.GapThreshold)
	manager := ingest.NewManager(pipeline, &cfg.Ingest)

	// After each run: reload the in-memory event set and notify clients.
	manager.SetOnCompleted(func(report *models.IngestionReport) {
		events, err := db.QueryAll(context.Background())
		if err != nil {
			logging.Error().Err(err).Msg("Failed to reload events after ingestion")
			return
		}
		coordinator.ReplaceEvents(events)
		wsHub.BroadcastIngestCompleted(report)
	})

	// Seed the coordinator with whatever history already exists.
	if events, err := db.QueryAll(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to load stored events at startup")
	} else {
		coordinator.ReplaceEvents(events)
		logging.Info().Int("events", len(events)).Msg("Loaded stored play events")
	}

	handler := api.NewHandler(db, manager, coordinator, wsHub, cfg)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddIngestService(services.NewWebSocketService(wsHub))
	tree.AddIngestService(services.NewIngestService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Melograph stopped")
}
