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

// pitchClassNames maps the key attribute (0-11) to note names.
var pitchClassNames = [12]string{
	"C", "D♭", "D", "E♭", "E", "F", "F♯", "G", "A♭", "A", "B♭", "B",
}

// Time signature buckets span 2/4 through 9/4. Values outside the range are
// dropped.
const (
	minTimeSignature = 2
	maxTimeSignature = 9
)

// PitchClassName returns the note name for a key value, or an empty string
// for out-of-range keys.
func PitchClassName(key int) string {
	if key < 0 || key >= len(pitchClassNames) {
		return ""
	}
	return pitchClassNames[key]
}

// CountByKeyMode counts plays per pitch class split by mode. All 12 pitch
// classes are present in the result even when their count is zero, ordered
// C through B.
func CountByKeyMode(events []models.PlayEvent) []models.KeyModeCount {
	counts := make([]models.KeyModeCount, len(pitchClassNames))
	for i, name := range pitchClassNames {
		counts[i] = models.KeyModeCount{Key: name}
	}

	for i := range events {
		key := events[i].Key
		if key < 0 || key >= len(pitchClassNames) {
			continue
		}
		if events[i].Mode == 1 {
			counts[key].Major++
		} else {
			counts[key].Minor++
		}
	}

	return counts
}

// CountByTimeSignature counts plays per time signature. Every bucket from
// 2/4 through 9/4 is present even when zero.
func CountByTimeSignature(events []models.PlayEvent) []models.BucketCount {
	counts := make([]models.BucketCount, 0, maxTimeSignature-minTimeSignature+1)
	index := make(map[int]int, maxTimeSignature-minTimeSignature+1)
	for ts := minTimeSignature; ts <= maxTimeSignature; ts++ {
		index[ts] = len(counts)
		counts = append(counts, models.BucketCount{Bucket: fmt.Sprintf("%d/4", ts)})
	}

	for i := range events {
		if pos, ok := index[events[i].TimeSignature]; ok {
			counts[pos].Count++
		}
	}

	return counts
}

// CountByArtist counts plays per artist, most played first. Ties break
// alphabetically so output is stable.
func CountByArtist(events []models.PlayEvent) []models.BucketCount {
	byArtist := make(map[string]int)
	for i := range events {
		byArtist[events[i].ArtistName]++
	}

	counts := make([]models.BucketCount, 0, len(byArtist))
	for artist, count := range byArtist {
		counts = append(counts, models.BucketCount{Bucket: artist, Count: count})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Bucket < counts[j].Bucket
	})

	return counts
}

// weekdayNames orders buckets Monday first.
var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// CountByWeekday counts plays per weekday, Monday through Sunday, with every
// weekday present even when zero.
func CountByWeekday(events []models.PlayEvent) []models.BucketCount {
	counts := make([]models.BucketCount, len(weekdayNames))
	for i, name := range weekdayNames {
		counts[i] = models.BucketCount{Bucket: name}
	}

	for i := range events {
		// time.Weekday has Sunday == 0; shift so Monday leads.
		idx := (int(events[i].PlayedAt.Weekday()) + 6) % 7
		counts[idx].Count++
	}

	return counts
}
