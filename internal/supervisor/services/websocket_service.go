// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package services

import (
	"context"
)

// HubRunner matches the WebSocket hub's Run method.
type HubRunner interface {
	Run(ctx context.Context) error
}

// WebSocketService supervises the WebSocket hub.
type WebSocketService struct {
	hub  HubRunner
	name string
}

// NewWebSocketService wraps the hub.
func NewWebSocketService(hub HubRunner) *WebSocketService {
	return &WebSocketService{hub: hub, name: "websocket-hub"}
}

// Serve implements suture.Service.
func (s *WebSocketService) Serve(ctx context.Context) error {
	return s.hub.Run(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *WebSocketService) String() string {
	return s.name
}
