// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package analytics

import (
	"github.com/melograph/melograph/internal/models"
)

// ScatterPoint is one marker on a feature scatter chart. Repeat plays of the
// same track collapse into a single point whose size class reflects the play
// count.
type ScatterPoint struct {
	TrackID    string  `json:"track_id"`
	TrackName  string  `json:"track_name"`
	ArtistName string  `json:"artist_name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	PlayCount  int     `json:"play_count"`
	Size       int     `json:"size"`
}

// Scatter is a fully shaped chart payload.
type Scatter struct {
	Title      string                 `json:"title"`
	XAxis      string                 `json:"x_axis"`
	XLabel     string                 `json:"x_label"`
	YAxis      string                 `json:"y_axis"`
	YLabel     string                 `json:"y_label"`
	Points     []ScatterPoint         `json:"points"`
	Result     models.AnalyticsResult `json:"result"`
	Regression *models.Regression     `json:"regression,omitempty"`
}

// Marker size classes by play count: single plays stay small, moderate
// repeats grow, heavy rotation stands out.
const (
	sizeSingle   = 5
	sizeModerate = 7
	sizeHeavy    = 10
)

// sizeForCount maps a play count to its marker size class.
func sizeForCount(count int) int {
	switch {
	case count <= 1:
		return sizeSingle
	case count <= 5:
		return sizeModerate
	default:
		return sizeHeavy
	}
}

// BuildScatter shapes the given plays into a scatter chart for the two axes.
// Points appear in first-played order. The correlation over the full play
// list (repeats included) rides along in Result.
func BuildScatter(events []models.PlayEvent, xAxis, yAxis string) (*Scatter, error) {
	x, err := AxisByName(xAxis)
	if err != nil {
		return nil, err
	}
	y, err := AxisByName(yAxis)
	if err != nil {
		return nil, err
	}

	result, err := Correlate(events, xAxis, yAxis)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(events))
	points := make([]ScatterPoint, 0, len(events))
	for i := range events {
		e := &events[i]
		if pos, ok := index[e.TrackID]; ok {
			points[pos].PlayCount++
			continue
		}
		index[e.TrackID] = len(points)
		points = append(points, ScatterPoint{
			TrackID:    e.TrackID,
			TrackName:  e.TrackName,
			ArtistName: e.ArtistName,
			X:          x.Extract(e),
			Y:          y.Extract(e),
			PlayCount:  1,
		})
	}

	for i := range points {
		points[i].Size = sizeForCount(points[i].PlayCount)
	}

	return &Scatter{
		Title:      CorrelationTitle(xAxis, yAxis, result),
		XAxis:      x.Name,
		XLabel:     x.Label,
		YAxis:      y.Name,
		YLabel:     y.Label,
		Points:     points,
		Result:     result,
		Regression: result.Regression,
	}, nil
}
