// Copyright 2026 The Tracklist Authors.
// All rights reserved.

package album

import "strings"

// Import contains album information fetched from an external catalog
// (e.g. MusicBrainz or Bandcamp) that can be used to fill the album form.
type Import struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist,omitempty"`
	ReleaseYear int     `json:"releaseYear,omitempty"`
	CoverURL    string  `json:"coverUrl,omitempty"`
	Tracks      []Track `json:"tracks"`
}

// TrackCount returns the number of imported tracks.
func (im *Import) TrackCount() int { return len(im.Tracks) }

// Form holds the values entered in the album form.
type Form struct {
	Title       string
	ArtistID    int64
	ReleaseYear int // 0 if unset
	CoverURL    string
	Description string
	GenreIDs    []int64
	Tracks      []Track
}

// Payload is the request body used to create or update an album.
// Optional fields are nil rather than empty so they're sent as null.
type Payload struct {
	Title       string       `json:"title"`
	ArtistID    int64        `json:"artistId"`
	ReleaseYear *int         `json:"releaseYear"`
	CoverURL    *string      `json:"coverUrl"`
	Description *string      `json:"description"`
	GenreIDs    []int64      `json:"genreIds"`
	Tracks      []SavedTrack `json:"tracks"`
}

// NewPayload shapes the supplied form values into a Payload.
func NewPayload(f Form) Payload {
	p := Payload{
		Title:       strings.TrimSpace(f.Title),
		ArtistID:    f.ArtistID,
		CoverURL:    optString(f.CoverURL),
		Description: optString(f.Description),
		Tracks:      SaveTracks(f.Tracks),
	}
	if f.ReleaseYear != 0 {
		p.ReleaseYear = intPtr(f.ReleaseYear)
	}
	if len(f.GenreIDs) > 0 {
		p.GenreIDs = f.GenreIDs
	}
	return p
}

// optString trims s and returns nil if nothing is left.
func optString(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
