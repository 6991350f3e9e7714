// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package analytics

import (
	"fmt"
	"sort"

	"github.com/melograph/melograph/internal/models"
)

// Axis extracts one numeric feature from a play event.
type Axis struct {
	Name    string
	Label   string
	Extract func(*models.PlayEvent) float64
}

// axes maps axis names to extractors. Names match the stored column names so
// API callers and CSV consumers share one vocabulary.
var axes = map[string]Axis{
	"danceability": {
		Name: "danceability", Label: "Danceability",
		Extract: func(e *models.PlayEvent) float64 { return e.Danceability },
	},
	"energy": {
		Name: "energy", Label: "Energy",
		Extract: func(e *models.PlayEvent) float64 { return e.Energy },
	},
	"loudness": {
		Name: "loudness", Label: "Loudness (dB)",
		Extract: func(e *models.PlayEvent) float64 { return e.Loudness },
	},
	"speechiness": {
		Name: "speechiness", Label: "Speechiness",
		Extract: func(e *models.PlayEvent) float64 { return e.Speechiness },
	},
	"acousticness": {
		Name: "acousticness", Label: "Acousticness",
		Extract: func(e *models.PlayEvent) float64 { return e.Acousticness },
	},
	"instrumentalness": {
		Name: "instrumentalness", Label: "Instrumentalness",
		Extract: func(e *models.PlayEvent) float64 { return e.Instrumentalness },
	},
	"liveness": {
		Name: "liveness", Label: "Liveness",
		Extract: func(e *models.PlayEvent) float64 { return e.Liveness },
	},
	"valence": {
		Name: "valence", Label: "Valence",
		Extract: func(e *models.PlayEvent) float64 { return e.Valence },
	},
	"tempo": {
		Name: "tempo", Label: "Tempo (BPM)",
		Extract: func(e *models.PlayEvent) float64 { return e.Tempo },
	},
	"duration_s": {
		Name: "duration_s", Label: "Duration (s)",
		Extract: func(e *models.PlayEvent) float64 { return e.DurationSec },
	},
}

// AxisByName resolves an axis name.
func AxisByName(name string) (Axis, error) {
	axis, ok := axes[name]
	if !ok {
		return Axis{}, fmt.Errorf("unknown axis %q, valid axes: %v", name, AxisNames())
	}
	return axis, nil
}

// AxisNames returns the valid axis names in sorted order.
func AxisNames() []string {
	names := make([]string, 0, len(axes))
	for name := range axes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
