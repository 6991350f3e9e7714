// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/melograph/melograph/internal/models"
)

// newTestClient builds a client without a real connection. Only the send
// channel matters to the hub's bookkeeping.
func newTestClient(hub *Hub) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message, 256),
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// Unregistering closes the send channel.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("Expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Error("Send channel not closed after unregister")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Hub did not stop after cancellation")
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	a := newTestClient(hub)
	b := newTestClient(hub)
	hub.Register <- a
	hub.Register <- b
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.BroadcastJSON(MessageTypeStatsUpdate, map[string]int{"total": 42})

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeStatsUpdate {
				t.Errorf("Expected stats_update, got %s", msg.Type)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Client did not receive broadcast")
		}
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	slow := newTestClient(hub)
	slow.send = make(chan Message) // no buffer, nothing reading
	hub.Register <- slow
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastJSON(MessageTypePing, nil)

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-done

	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after shutdown, got %d", hub.ClientCount())
	}
}

func TestHub_BroadcastIngestCompleted(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	client := newTestClient(hub)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastIngestCompleted(&models.IngestionReport{
		InsertedCount:  5,
		DuplicateCount: 2,
		GapDetected:    true,
		DurationMS:     120,
	})

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeIngestCompleted {
			t.Fatalf("Expected ingest_completed, got %s", msg.Type)
		}
		data, ok := msg.Data.(IngestCompletedData)
		if !ok {
			t.Fatalf("Unexpected data type %T", msg.Data)
		}
		if data.NewPlays != 5 || data.Duplicates != 2 || !data.GapDetected {
			t.Errorf("Report fields wrong: %+v", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Client did not receive ingest notification")
	}
}

// waitFor polls a condition with a deadline.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}
