// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package services wraps long-running components as suture services.
package services

import (
	"context"
)

// Runner is a blocking loop that exits when its context is canceled.
type Runner interface {
	Run(ctx context.Context) error
}

// IngestService supervises the periodic ingestion loop.
type IngestService struct {
	runner Runner
	name   string
}

// NewIngestService wraps the ingestion manager.
func NewIngestService(runner Runner) *IngestService {
	return &IngestService{runner: runner, name: "ingest-manager"}
}

// Serve implements suture.Service. The runner returns ctx.Err() on normal
// shutdown, which suture treats as a clean stop.
func (s *IngestService) Serve(ctx context.Context) error {
	return s.runner.Run(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *IngestService) String() string {
	return s.name
}
