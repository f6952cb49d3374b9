// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package album describes album track lists as they appear in the album form
// and in the payload that is sent to save an album.
package album

import (
	"math"
	"strings"
	"time"
)

// Track describes a single row in an album's track form.
// Minutes and Seconds are nil if the track's length is unknown.
type Track struct {
	Title   string `json:"title"`
	Minutes *int   `json:"minutes"`
	Seconds *int   `json:"seconds"`
}

// NewTrack returns a Track with the supplied title and length.
// d is rounded to the nearest second. If d rounds to zero or less,
// the track's length is left unset.
func NewTrack(title string, d time.Duration) Track {
	tr := Track{Title: title}
	if sec := int(math.Round(d.Seconds())); sec > 0 {
		tr.Minutes, tr.Seconds = intPtr(sec/60), intPtr(sec%60)
	}
	return tr
}

// MakeTrack is a convenience function that returns a Track with
// both minutes and seconds set.
func MakeTrack(title string, min, sec int) Track {
	return Track{Title: title, Minutes: intPtr(min), Seconds: intPtr(sec)}
}

// Duration returns the track's length.
// false is returned if the length is unknown.
func (tr *Track) Duration() (time.Duration, bool) {
	if tr.Minutes == nil {
		return 0, false
	}
	d := time.Duration(*tr.Minutes) * time.Minute
	if tr.Seconds != nil {
		d += time.Duration(*tr.Seconds) * time.Second
	}
	return d, true
}

// SavedTrack is a track as sent to and received from the album API.
type SavedTrack struct {
	// TrackNumber is the 1-based position of the track on the album.
	TrackNumber int    `json:"trackNumber"`
	Title       string `json:"title"`
	// Duration contains the track's length in seconds, or nil if unknown.
	Duration *int `json:"duration"`
}

// SaveTracks converts form rows into tracks for the album API.
// Rows without a title are dropped and the remaining tracks are numbered by position.
// The returned slice is never nil.
func SaveTracks(rows []Track) []SavedTrack {
	saved := make([]SavedTrack, 0, len(rows))
	for _, row := range rows {
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		st := SavedTrack{TrackNumber: len(saved) + 1, Title: title}
		if d, ok := row.Duration(); ok {
			st.Duration = intPtr(int(d / time.Second))
		}
		saved = append(saved, st)
	}
	return saved
}

// TracksFromSaved converts tracks from the album API into form rows.
// If saved is empty, a single blank row is returned so the form has something to edit.
func TracksFromSaved(saved []SavedTrack) []Track {
	if len(saved) == 0 {
		return []Track{{}}
	}
	rows := make([]Track, len(saved))
	for i, st := range saved {
		rows[i].Title = st.Title
		if st.Duration != nil {
			rows[i].Minutes = intPtr(*st.Duration / 60)
			rows[i].Seconds = intPtr(*st.Duration % 60)
		}
	}
	return rows
}

func intPtr(v int) *int { return &v }
