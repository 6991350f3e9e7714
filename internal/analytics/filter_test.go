// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package analytics

import (
	"testing"
	"time"

	"github.com/melograph/melograph/internal/models"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func makeEvent(trackID, trackName, artistName string, playedAt time.Time) models.PlayEvent {
	return models.PlayEvent{
		TrackID:    trackID,
		TrackName:  trackName,
		ArtistName: artistName,
		PlayedAt:   playedAt,
	}
}

func TestFilterSpec_ZeroValueKeepsEverything(t *testing.T) {
	events := []models.PlayEvent{
		makeEvent("t1", "Alpha", "Artist A", time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)),
		makeEvent("t2", "Beta", "Artist B", time.Date(2026, 6, 15, 23, 30, 0, 0, time.UTC)),
	}

	spec := FilterSpec{}
	filtered := spec.Apply(events)

	if len(filtered) != len(events) {
		t.Errorf("Expected %d events, got %d", len(events), len(filtered))
	}
}

func TestFilterSpec_TimeRangeInclusiveBounds(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		playedAt time.Time
		want     bool
	}{
		{"before range", from.Add(-time.Second), false},
		{"exactly at from", from, true},
		{"inside range", from.Add(24 * time.Hour), true},
		{"exactly at to", to, true},
		{"after range", to.Add(time.Second), false},
	}

	spec := FilterSpec{Range: &TimeRange{From: timePtr(from), To: timePtr(to)}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := makeEvent("t1", "Track", "Artist", tt.playedAt)
			if got := spec.Matches(&e); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", tt.playedAt, got, tt.want)
			}
		})
	}
}

func TestFilterSpec_OpenEndedRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spec := FilterSpec{Range: &TimeRange{From: timePtr(from)}}

	early := makeEvent("t1", "Track", "Artist", from.Add(-time.Hour))
	late := makeEvent("t2", "Track", "Artist", from.Add(1000*time.Hour))

	if spec.Matches(&early) {
		t.Error("Event before open-ended From should not match")
	}
	if !spec.Matches(&late) {
		t.Error("Event after From should match with unbounded To")
	}
}

func TestFilterSpec_ClockWindow(t *testing.T) {
	tests := []struct {
		name   string
		window TimeOfDay
		hour   int
		minute int
		want   bool
	}{
		{"inside plain window", TimeOfDay{Start: 9, End: 17}, 12, 30, true},
		{"at window start", TimeOfDay{Start: 9, End: 17}, 9, 0, true},
		{"at window end", TimeOfDay{Start: 9, End: 17}, 17, 0, true},
		{"minute past window end", TimeOfDay{Start: 9, End: 17}, 17, 1, false},
		{"before plain window", TimeOfDay{Start: 9, End: 17}, 8, 59, false},
		{"after plain window", TimeOfDay{Start: 9, End: 17}, 18, 30, false},
		{"wrapping window late night", TimeOfDay{Start: 22, End: 4}, 23, 30, true},
		{"wrapping window after midnight", TimeOfDay{Start: 22, End: 4}, 3, 30, true},
		{"wrapping window at end", TimeOfDay{Start: 22, End: 4}, 4, 0, true},
		{"wrapping window past end", TimeOfDay{Start: 22, End: 4}, 4, 30, false},
		{"wrapping window outside", TimeOfDay{Start: 22, End: 4}, 12, 30, false},
		{"single instant window", TimeOfDay{Start: 7, End: 7}, 7, 0, true},
		{"single instant window misses", TimeOfDay{Start: 7, End: 7}, 7, 30, false},
		{"half-hour start included", TimeOfDay{Start: 22, StartMinute: 30, End: 2}, 22, 45, true},
		{"before half-hour start", TimeOfDay{Start: 22, StartMinute: 30, End: 2}, 22, 15, false},
		{"half-hour wrap end included", TimeOfDay{Start: 22, StartMinute: 30, End: 2}, 2, 0, true},
		{"past half-hour wrap end", TimeOfDay{Start: 22, StartMinute: 30, End: 2}, 2, 1, false},
		{"sub-hour end bound", TimeOfDay{Start: 9, End: 9, EndMinute: 30}, 9, 30, true},
		{"past sub-hour end bound", TimeOfDay{Start: 9, End: 9, EndMinute: 30}, 9, 31, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := tt.window
			spec := FilterSpec{Hours: &window}
			e := makeEvent("t1", "Track", "Artist",
				time.Date(2026, 5, 10, tt.hour, tt.minute, 0, 0, time.UTC))
			if got := spec.Matches(&e); got != tt.want {
				t.Errorf("%02d:%02d in window %+v = %v, want %v", tt.hour, tt.minute, tt.window, got, tt.want)
			}
		})
	}
}

func TestFilterSpec_NameQuery(t *testing.T) {
	e := makeEvent("t1", "Paranoid Android", "Radiohead", time.Now())

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"matches track substring", "android", true},
		{"matches artist substring", "radio", true},
		{"case insensitive", "PARANOID", true},
		{"no match", "zeppelin", false},
		{"empty query matches", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := FilterSpec{NameQuery: tt.query}
			if got := spec.Matches(&e); got != tt.want {
				t.Errorf("NameQuery %q = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFilterSpec_ApplyPreservesOrderAndInput(t *testing.T) {
	events := []models.PlayEvent{
		makeEvent("t1", "One", "A", time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)),
		makeEvent("t2", "Two", "B", time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)),
		makeEvent("t3", "Three", "C", time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)),
	}
	from := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	spec := FilterSpec{Range: &TimeRange{From: timePtr(from)}}

	filtered := spec.Apply(events)

	if len(filtered) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(filtered))
	}
	if filtered[0].TrackID != "t2" || filtered[1].TrackID != "t3" {
		t.Errorf("Order not preserved: got %s, %s", filtered[0].TrackID, filtered[1].TrackID)
	}
	if len(events) != 3 || events[0].TrackID != "t1" {
		t.Error("Input slice was modified")
	}
}

func TestFilterSpec_Validate(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		spec      FilterSpec
		expectErr bool
	}{
		{"zero spec valid", FilterSpec{}, false},
		{"inverted range", FilterSpec{Range: &TimeRange{From: timePtr(from), To: timePtr(to)}}, true},
		{"hour start too large", FilterSpec{Hours: &TimeOfDay{Start: 24, End: 5}}, true},
		{"hour end negative", FilterSpec{Hours: &TimeOfDay{Start: 5, End: -1}}, true},
		{"start minute too large", FilterSpec{Hours: &TimeOfDay{Start: 9, StartMinute: 60, End: 17}}, true},
		{"end minute negative", FilterSpec{Hours: &TimeOfDay{Start: 9, End: 17, EndMinute: -1}}, true},
		{"wrapping hours valid", FilterSpec{Hours: &TimeOfDay{Start: 22, End: 4}}, false},
		{"half hour bounds valid", FilterSpec{Hours: &TimeOfDay{Start: 22, StartMinute: 30, End: 2}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestIntersect_TightensRanges(t *testing.T) {
	aFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	aTo := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	bFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	bTo := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	a := FilterSpec{Range: &TimeRange{From: timePtr(aFrom), To: timePtr(aTo)}}
	b := FilterSpec{Range: &TimeRange{From: timePtr(bFrom), To: timePtr(bTo)}}

	out := Intersect(a, b)

	if out.Range == nil {
		t.Fatal("Expected intersected range")
	}
	if !out.Range.From.Equal(bFrom) {
		t.Errorf("Expected From %s, got %s", bFrom, out.Range.From)
	}
	if !out.Range.To.Equal(aTo) {
		t.Errorf("Expected To %s, got %s", aTo, out.Range.To)
	}
}

func TestIntersect_MatchesBothSpecs(t *testing.T) {
	events := []models.PlayEvent{
		makeEvent("t1", "Morning Song", "Artist A", time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)),
		makeEvent("t2", "Night Song", "Artist A", time.Date(2026, 4, 1, 23, 0, 0, 0, time.UTC)),
		makeEvent("t3", "Morning Tune", "Artist B", time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)),
	}

	byHours := FilterSpec{Hours: &TimeOfDay{Start: 6, End: 12}}
	byName := FilterSpec{NameQuery: "morning"}

	combined := Intersect(byHours, byName)
	filtered := combined.Apply(events)

	if len(filtered) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(filtered))
	}
	for _, e := range filtered {
		if !byHours.Matches(&e) || !byName.Matches(&e) {
			t.Errorf("Event %s fails one of the original specs", e.TrackID)
		}
	}
}

func TestIntersect_CarriesBothHourWindows(t *testing.T) {
	morning := FilterSpec{Hours: &TimeOfDay{Start: 6, End: 12}}
	night := FilterSpec{Hours: &TimeOfDay{Start: 22, End: 4}}

	combined := Intersect(morning, night)

	morningEvent := makeEvent("t1", "Track", "Artist", time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	if combined.Matches(&morningEvent) {
		t.Error("Event in only one hour window should not pass the intersection")
	}
}

func TestIntersect_DistinctNameQueriesBothApply(t *testing.T) {
	a := FilterSpec{NameQuery: "radio"}
	b := FilterSpec{NameQuery: "android"}
	combined := Intersect(a, b)

	both := makeEvent("t1", "Paranoid Android", "Radiohead", time.Now())
	onlyA := makeEvent("t2", "Radio Ga Ga", "Queen", time.Now())

	if !combined.Matches(&both) {
		t.Error("Event matching both queries should pass")
	}
	if combined.Matches(&onlyA) {
		t.Error("Event matching only one query should not pass")
	}
}

func TestIntersect_Commutes(t *testing.T) {
	events := []models.PlayEvent{
		makeEvent("t1", "Alpha", "A", time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)),
		makeEvent("t2", "Beta", "B", time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC)),
		makeEvent("t3", "Alpha Two", "A", time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)),
	}
	a := FilterSpec{Hours: &TimeOfDay{Start: 6, End: 12}}
	b := FilterSpec{NameQuery: "alpha"}

	ab := Intersect(a, b).Apply(events)
	ba := Intersect(b, a).Apply(events)

	if len(ab) != len(ba) {
		t.Fatalf("Intersect not commutative: %d vs %d results", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].TrackID != ba[i].TrackID {
			t.Errorf("Result %d differs: %s vs %s", i, ab[i].TrackID, ba[i].TrackID)
		}
	}
}
