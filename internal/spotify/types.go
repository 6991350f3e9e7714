// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package spotify

import "time"

// RecentlyPlayedResponse is the wire format of the recently-played endpoint.
type RecentlyPlayedResponse struct {
	Items []PlayItem `json:"items"`
	Next  string     `json:"next"`
}

// PlayItem is a single playback record from the recently-played endpoint.
type PlayItem struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}

// Track describes the played track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DurationMS int      `json:"duration_ms"`
	Artists    []Artist `json:"artists"`
}

// Artist holds the artist name.
type Artist struct {
	Name string `json:"name"`
}

// ArtistName returns the primary artist, or an empty string if none listed.
func (t Track) ArtistName() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// AudioFeaturesResponse is the wire format of the batch audio-features
// endpoint. Entries can be null for tracks without analysis.
type AudioFeaturesResponse struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

// AudioFeatures holds the per-track analysis attributes.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	DurationMS       int     `json:"duration_ms"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}
