// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

// Package analytics implements in-memory filtering and statistics over play
// events: time and name filters, feature correlation with least-squares
// regression, and bucketed counts for categorical attributes.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/melograph/melograph/internal/models"
)

// TimeRange restricts plays to an inclusive wall-clock interval. A nil From
// or To leaves that side unbounded.
type TimeRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// TimeOfDay restricts plays to a daily clock window, inclusive on both
// bounds at minute resolution. Minutes default to zero, so {22, 4} keeps
// plays between 22:00 and 04:00. When the start lies after the end the
// window wraps past midnight.
type TimeOfDay struct {
	Start       int `json:"start"`
	End         int `json:"end"`
	StartMinute int `json:"start_minute,omitempty"`
	EndMinute   int `json:"end_minute,omitempty"`
}

// bounds returns the window as inclusive minutes of the day.
func (w TimeOfDay) bounds() (start, end int) {
	return w.Start*60 + w.StartMinute, w.End*60 + w.EndMinute
}

// FilterSpec describes which plays to keep. Zero-valued members are
// inactive, so the zero FilterSpec keeps everything.
type FilterSpec struct {
	Range     *TimeRange `json:"range,omitempty"`
	Hours     *TimeOfDay `json:"hours,omitempty"`
	NameQuery string     `json:"name_query,omitempty"`

	// and holds further specs a play must also pass. Populated by Intersect
	// when criteria cannot merge into a single bound.
	and []FilterSpec
}

// Validate reports whether the filter's bounds are usable.
func (s FilterSpec) Validate() error {
	if s.Range != nil && s.Range.From != nil && s.Range.To != nil && s.Range.To.Before(*s.Range.From) {
		return fmt.Errorf("time range end %s precedes start %s", s.Range.To.Format(time.RFC3339), s.Range.From.Format(time.RFC3339))
	}
	if s.Hours != nil {
		if s.Hours.Start < 0 || s.Hours.Start > 23 {
			return fmt.Errorf("clock window start hour must be in [0, 23], got %d", s.Hours.Start)
		}
		if s.Hours.End < 0 || s.Hours.End > 23 {
			return fmt.Errorf("clock window end hour must be in [0, 23], got %d", s.Hours.End)
		}
		if s.Hours.StartMinute < 0 || s.Hours.StartMinute > 59 {
			return fmt.Errorf("clock window start minute must be in [0, 59], got %d", s.Hours.StartMinute)
		}
		if s.Hours.EndMinute < 0 || s.Hours.EndMinute > 59 {
			return fmt.Errorf("clock window end minute must be in [0, 59], got %d", s.Hours.EndMinute)
		}
	}
	for _, sub := range s.and {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether a single play passes every active criterion.
func (s FilterSpec) Matches(e *models.PlayEvent) bool {
	if s.Range != nil {
		if s.Range.From != nil && e.PlayedAt.Before(*s.Range.From) {
			return false
		}
		if s.Range.To != nil && e.PlayedAt.After(*s.Range.To) {
			return false
		}
	}

	if s.Hours != nil {
		start, end := s.Hours.bounds()
		if !minuteInWindow(e.PlayedAt.Hour()*60+e.PlayedAt.Minute(), start, end) {
			return false
		}
	}

	if s.NameQuery != "" {
		q := strings.ToLower(s.NameQuery)
		if !strings.Contains(strings.ToLower(e.TrackName), q) &&
			!strings.Contains(strings.ToLower(e.ArtistName), q) {
			return false
		}
	}

	for _, sub := range s.and {
		if !sub.Matches(e) {
			return false
		}
	}

	return true
}

// Apply returns the plays passing the filter, preserving input order. The
// input slice is never modified.
func (s FilterSpec) Apply(events []models.PlayEvent) []models.PlayEvent {
	filtered := make([]models.PlayEvent, 0, len(events))
	for i := range events {
		if s.Matches(&events[i]) {
			filtered = append(filtered, events[i])
		}
	}
	return filtered
}

// Intersect combines two specs so a play must pass both. Where both specs
// bound the same dimension the tighter bound wins; name queries must each
// match.
func Intersect(a, b FilterSpec) FilterSpec {
	out := FilterSpec{}

	out.Range = intersectRanges(a.Range, b.Range)

	// Clock windows do not compose into a single window when wrapping is
	// involved, and two distinct name queries must each match. Criteria that
	// cannot merge into one bound are carried as an extra conjunct.
	extra := FilterSpec{}

	switch {
	case a.Hours == nil:
		out.Hours = b.Hours
	case b.Hours == nil:
		out.Hours = a.Hours
	default:
		out.Hours = a.Hours
		extra.Hours = b.Hours
	}

	switch {
	case a.NameQuery == "":
		out.NameQuery = b.NameQuery
	case b.NameQuery == "":
		out.NameQuery = a.NameQuery
	case strings.Contains(strings.ToLower(b.NameQuery), strings.ToLower(a.NameQuery)):
		out.NameQuery = b.NameQuery
	case strings.Contains(strings.ToLower(a.NameQuery), strings.ToLower(b.NameQuery)):
		out.NameQuery = a.NameQuery
	default:
		out.NameQuery = a.NameQuery
		extra.NameQuery = b.NameQuery
	}

	if extra.Hours != nil || extra.NameQuery != "" {
		out.and = append(out.and, extra)
	}
	out.and = append(out.and, a.and...)
	out.and = append(out.and, b.and...)

	return out
}

// intersectRanges returns the overlap of two optional time ranges.
func intersectRanges(a, b *TimeRange) *TimeRange {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := &TimeRange{From: a.From, To: a.To}
	if b.From != nil && (out.From == nil || b.From.After(*out.From)) {
		out.From = b.From
	}
	if b.To != nil && (out.To == nil || b.To.Before(*out.To)) {
		out.To = b.To
	}
	return out
}

// minuteInWindow reports whether a minute of the day falls inside the
// inclusive [start, end] window, wrapping past midnight when start > end.
func minuteInWindow(minute, start, end int) bool {
	if start <= end {
		return minute >= start && minute <= end
	}
	return minute >= start || minute <= end
}
