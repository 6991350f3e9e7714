// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/melograph/melograph/internal/models"
)

func featureEvents(pairs [][2]float64) []models.PlayEvent {
	events := make([]models.PlayEvent, len(pairs))
	for i, p := range pairs {
		events[i] = models.PlayEvent{
			TrackID:      "track",
			PlayedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
			Danceability: p[0],
			Energy:       p[1],
		}
	}
	return events
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCorrelate_PerfectPositive(t *testing.T) {
	events := featureEvents([][2]float64{
		{0.1, 0.2}, {0.2, 0.4}, {0.3, 0.6}, {0.4, 0.8},
	})

	result, err := Correlate(events, "danceability", "energy")
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if !result.Defined {
		t.Fatal("Expected defined coefficient")
	}
	if !almostEqual(result.Coefficient, 1.0) {
		t.Errorf("Expected r=1.0, got %f", result.Coefficient)
	}
	if result.Regression == nil {
		t.Fatal("Expected regression fit")
	}
	if !almostEqual(result.Regression.Slope, 2.0) {
		t.Errorf("Expected slope 2.0, got %f", result.Regression.Slope)
	}
	if !almostEqual(result.Regression.Intercept, 0.0) {
		t.Errorf("Expected intercept 0.0, got %f", result.Regression.Intercept)
	}
	if !almostEqual(result.Regression.RSquared, 1.0) {
		t.Errorf("Expected R-squared 1.0, got %f", result.Regression.RSquared)
	}
}

func TestCorrelate_PerfectNegative(t *testing.T) {
	events := featureEvents([][2]float64{
		{0.1, 0.9}, {0.2, 0.8}, {0.3, 0.7},
	})

	result, err := Correlate(events, "danceability", "energy")
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if !almostEqual(result.Coefficient, -1.0) {
		t.Errorf("Expected r=-1.0, got %f", result.Coefficient)
	}
}

func TestCorrelate_KnownValue(t *testing.T) {
	// x = 1..5, y = 2, 1, 4, 3, 5 gives r = 0.8.
	events := featureEvents([][2]float64{
		{1, 2}, {2, 1}, {3, 4}, {4, 3}, {5, 5},
	})

	result, err := Correlate(events, "danceability", "energy")
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if !almostEqual(result.Coefficient, 0.8) {
		t.Errorf("Expected r=0.8, got %f", result.Coefficient)
	}
	if !almostEqual(result.Regression.RSquared, 0.64) {
		t.Errorf("Expected R-squared 0.64, got %f", result.Regression.RSquared)
	}
}

func TestCorrelate_RSquaredEqualsCoefficientSquared(t *testing.T) {
	events := featureEvents([][2]float64{
		{0.12, 0.88}, {0.45, 0.31}, {0.67, 0.52}, {0.21, 0.73}, {0.93, 0.14},
	})

	result, err := Correlate(events, "danceability", "energy")
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	r2 := result.Coefficient * result.Coefficient
	if math.Abs(result.Regression.RSquared-r2) > 1e-9 {
		t.Errorf("R-squared %f does not equal r^2 %f", result.Regression.RSquared, r2)
	}
}

func TestCorrelate_Symmetry(t *testing.T) {
	events := featureEvents([][2]float64{
		{0.1, 0.7}, {0.5, 0.2}, {0.9, 0.6}, {0.3, 0.4},
	})

	forward, err := Correlate(events, "danceability", "energy")
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}
	reverse, err := Correlate(events, "energy", "danceability")
	if err != nil {
		t.Fatalf("Correlate failed: %v", err)
	}

	if !almostEqual(forward.Coefficient, reverse.Coefficient) {
		t.Errorf("Coefficient not symmetric: %f vs %f", forward.Coefficient, reverse.Coefficient)
	}
}

func TestCorrelate_Undefined(t *testing.T) {
	tests := []struct {
		name   string
		events []models.PlayEvent
	}{
		{"empty", nil},
		{"single point", featureEvents([][2]float64{{0.5, 0.5}})},
		{"zero variance x", featureEvents([][2]float64{{0.5, 0.1}, {0.5, 0.9}, {0.5, 0.4}})},
		{"zero variance y", featureEvents([][2]float64{{0.1, 0.5}, {0.9, 0.5}, {0.4, 0.5}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Correlate(tt.events, "danceability", "energy")
			if err != nil {
				t.Fatalf("Correlate failed: %v", err)
			}
			if result.Defined {
				t.Error("Expected undefined coefficient")
			}
			if result.Coefficient != 0 {
				t.Errorf("Undefined result should carry zero coefficient, got %f", result.Coefficient)
			}
			if result.Regression != nil {
				t.Error("Undefined result should not carry a regression fit")
			}
			if result.Count != len(tt.events) {
				t.Errorf("Expected count %d, got %d", len(tt.events), result.Count)
			}
		})
	}
}

func TestCorrelate_UnknownAxis(t *testing.T) {
	events := featureEvents([][2]float64{{0.1, 0.2}, {0.3, 0.4}})

	if _, err := Correlate(events, "sparkle", "energy"); err == nil {
		t.Error("Expected error for unknown x axis")
	}
	if _, err := Correlate(events, "energy", "sparkle"); err == nil {
		t.Error("Expected error for unknown y axis")
	}
}

func TestCorrelationTitle(t *testing.T) {
	defined := models.AnalyticsResult{Count: 42, Coefficient: 0.73215, Defined: true}
	got := CorrelationTitle("danceability", "energy", defined)
	want := "energy vs danceability (n=42, r=0.732)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	undefined := models.AnalyticsResult{Count: 1}
	got = CorrelationTitle("danceability", "energy", undefined)
	want = "energy vs danceability (n=1, r undefined)"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
