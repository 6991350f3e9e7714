// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package view

// Broadcaster delivers a typed payload to all connected clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// WSRenderer publishes frames over the WebSocket hub.
type WSRenderer struct {
	hub         Broadcaster
	messageType string
}

// NewWSRenderer creates a renderer that broadcasts frames with the given
// message type.
func NewWSRenderer(hub Broadcaster, messageType string) *WSRenderer {
	return &WSRenderer{hub: hub, messageType: messageType}
}

// Render broadcasts the frame.
func (r *WSRenderer) Render(frame *Frame) {
	r.hub.BroadcastJSON(r.messageType, frame)
}
