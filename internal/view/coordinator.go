// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package view coordinates the two interactive displays. Each display owns
// an independent filter state; any input change recomputes that display from
// the full in-memory event set and publishes a fresh frame to the renderer.
package view

import (
	"fmt"
	"sync"

	"github.com/melograph/melograph/internal/analytics"
	"github.com/melograph/melograph/internal/logging"
	"github.com/melograph/melograph/internal/metrics"
	"github.com/melograph/melograph/internal/models"
)

// DisplayID names one of the two displays.
type DisplayID string

const (
	// DisplayScatter is the feature scatter plot.
	DisplayScatter DisplayID = "scatter"
	// DisplayBar is the categorical bar chart.
	DisplayBar DisplayID = "bar"
)

// State is a display's recomputation phase.
type State string

const (
	StateIdle        State = "idle"
	StateRecomputing State = "recomputing"
	StateRendered    State = "rendered"
)

// Bar chart grouping axes.
const (
	GroupArtist        = "artist"
	GroupWeekday       = "weekday"
	GroupKeyMode       = "key_mode"
	GroupTimeSignature = "time_signature"
)

// Frame is one published render payload. Hover detail reads directly from an
// already-published frame, never triggering recomputation.
type Frame struct {
	Display       DisplayID             `json:"display"`
	Seq           uint64                `json:"seq"`
	FilteredCount int                   `json:"filtered_count"`
	Scatter       *analytics.Scatter    `json:"scatter,omitempty"`
	Buckets       []models.BucketCount  `json:"buckets,omitempty"`
	KeyModeCounts []models.KeyModeCount `json:"key_mode_counts,omitempty"`
	Group         string                `json:"group,omitempty"`
}

// Renderer consumes published frames. It is purely a sink.
type Renderer interface {
	Render(frame *Frame)
}

// displayState is one display's independent filter and render state. The two
// instances share no mutable state.
type displayState struct {
	spec  analytics.FilterSpec
	seq   uint64
	state State
	frame *Frame

	// Scatter display only.
	xAxis string
	yAxis string

	// Bar display only.
	group string
}

// Coordinator holds the in-memory event set and the two display states.
// Input events arrive serially per session; the mutex makes the same
// guarantee hold when HTTP handlers call in from multiple goroutines.
type Coordinator struct {
	mu         sync.Mutex
	events     []models.PlayEvent
	displays   map[DisplayID]*displayState
	regression bool
	renderer   Renderer
}

// NewCoordinator creates a Coordinator publishing to the given renderer.
func NewCoordinator(renderer Renderer) *Coordinator {
	return &Coordinator{
		displays: map[DisplayID]*displayState{
			DisplayScatter: {state: StateIdle, xAxis: "danceability", yAxis: "energy"},
			DisplayBar:     {state: StateIdle, group: GroupArtist},
		},
		regression: true,
		renderer:   renderer,
	}
}

// ReplaceEvents swaps in a fresh event set, typically after an ingestion
// run, and recomputes both displays.
func (c *Coordinator) ReplaceEvents(events []models.PlayEvent) {
	c.mu.Lock()
	c.events = events
	scatterSeq := c.bumpLocked(DisplayScatter)
	barSeq := c.bumpLocked(DisplayBar)
	c.mu.Unlock()

	c.recompute(DisplayScatter, scatterSeq)
	c.recompute(DisplayBar, barSeq)
}

// OnFilterChanged applies a new filter spec to one display. A malformed spec
// is rejected and the display keeps its last valid spec and frame.
func (c *Coordinator) OnFilterChanged(display DisplayID, spec analytics.FilterSpec) error {
	if err := spec.Validate(); err != nil {
		metrics.DisplayRejectedFilters.Inc()
		logging.Warn().Err(err).Str("display", string(display)).Msg("Rejected malformed filter")
		return fmt.Errorf("invalid filter: %w", err)
	}

	c.mu.Lock()
	d, ok := c.displays[display]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown display %q", display)
	}
	d.spec = spec
	seq := c.bumpLocked(display)
	c.mu.Unlock()

	c.recompute(display, seq)
	return nil
}

// OnAxisChanged switches the scatter display's axes or the bar display's
// grouping.
func (c *Coordinator) OnAxisChanged(display DisplayID, xAxis, yAxis string) error {
	c.mu.Lock()
	d, ok := c.displays[display]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown display %q", display)
	}

	switch display {
	case DisplayScatter:
		if _, err := analytics.AxisByName(xAxis); err != nil {
			c.mu.Unlock()
			return err
		}
		if _, err := analytics.AxisByName(yAxis); err != nil {
			c.mu.Unlock()
			return err
		}
		d.xAxis = xAxis
		d.yAxis = yAxis
	case DisplayBar:
		if !validGroup(xAxis) {
			c.mu.Unlock()
			return fmt.Errorf("unknown bar grouping %q", xAxis)
		}
		d.group = xAxis
	}

	seq := c.bumpLocked(display)
	c.mu.Unlock()

	c.recompute(display, seq)
	return nil
}

// OnRegressionToggle enables or disables the regression overlay and
// recomputes the scatter display.
func (c *Coordinator) OnRegressionToggle(enabled bool) {
	c.mu.Lock()
	c.regression = enabled
	seq := c.bumpLocked(DisplayScatter)
	c.mu.Unlock()

	c.recompute(DisplayScatter, seq)
}

// Frame returns the last published frame for a display, nil before the
// first publish.
func (c *Coordinator) Frame(display DisplayID) *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.displays[display]; ok {
		return d.frame
	}
	return nil
}

// DisplayState returns a display's current phase.
func (c *Coordinator) DisplayState(display DisplayID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.displays[display]; ok {
		return d.state
	}
	return StateIdle
}

// bumpLocked advances a display's sequence number and marks it recomputing.
// Callers must hold the mutex.
func (c *Coordinator) bumpLocked(display DisplayID) uint64 {
	d := c.displays[display]
	d.seq++
	d.state = StateRecomputing
	return d.seq
}

// recompute runs the full filter and analytics pass for one display, then
// publishes the result only if no newer change superseded it. Computation
// happens outside the lock; the publish step re-checks the sequence number.
func (c *Coordinator) recompute(display DisplayID, seq uint64) {
	c.mu.Lock()
	d := c.displays[display]
	events := c.events
	spec := d.spec
	xAxis, yAxis, group := d.xAxis, d.yAxis, d.group
	regression := c.regression
	c.mu.Unlock()

	filtered := spec.Apply(events)

	frame := &Frame{
		Display:       display,
		Seq:           seq,
		FilteredCount: len(filtered),
	}

	switch display {
	case DisplayScatter:
		scatter, err := analytics.BuildScatter(filtered, xAxis, yAxis)
		if err != nil {
			logging.Error().Err(err).Str("display", string(display)).Msg("Scatter recompute failed")
			c.mu.Lock()
			if d.seq == seq {
				// The last published frame stays current.
				if d.frame != nil {
					d.state = StateRendered
				} else {
					d.state = StateIdle
				}
			}
			c.mu.Unlock()
			return
		}
		if !regression {
			scatter.Regression = nil
		}
		frame.Scatter = scatter
	case DisplayBar:
		frame.Group = group
		switch group {
		case GroupKeyMode:
			frame.KeyModeCounts = analytics.CountByKeyMode(filtered)
		case GroupTimeSignature:
			frame.Buckets = analytics.CountByTimeSignature(filtered)
		case GroupWeekday:
			frame.Buckets = analytics.CountByWeekday(filtered)
		default:
			frame.Buckets = analytics.CountByArtist(filtered)
		}
	}

	c.mu.Lock()
	if d.seq != seq {
		// A newer change superseded this computation.
		c.mu.Unlock()
		metrics.DisplayStaleDrops.Inc()
		return
	}
	d.frame = frame
	d.state = StateRendered
	c.mu.Unlock()

	metrics.DisplayRecomputes.WithLabelValues(string(display)).Inc()
	if c.renderer != nil {
		c.renderer.Render(frame)
	}
}

// validGroup reports whether a bar grouping name is recognized.
func validGroup(group string) bool {
	switch group {
	case GroupArtist, GroupWeekday, GroupKeyMode, GroupTimeSignature:
		return true
	}
	return false
}
