// Copyright 2026 The Tracklist Authors.
// All rights reserved.

package mbdb

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/tunelog/tracklist/strutil"
)

// maxEditDist contains the maximum edit distance between the title passed to
// FindRelease and the title of a release in the MusicBrainz database.
const maxEditDist = 2

// ErrNoMatch is returned by FindRelease if no release had a close-enough title.
var ErrNoMatch = errors.New("no matching release")

// FindRelease searches for releases matching title and artist and returns the MBID
// of the release whose title is closest to title.
func (db *DB) FindRelease(ctx context.Context, title, artist string) (string, error) {
	infos, err := db.SearchReleases(ctx, title, artist, 0)
	if err != nil {
		return "", err
	}
	if title == "" {
		// Without a title to compare against, trust the search ranking.
		if len(infos) == 0 {
			return "", ErrNoMatch
		}
		return infos[0].MBID, nil
	}
	mbid := bestRelease(infos, title)
	if mbid == "" {
		return "", ErrNoMatch
	}
	return mbid, nil
}

// bestRelease returns the MBID of the release in infos with a title closest to
// title (as determined by Levenshtein edit distance after normalization).
// Ties are broken by the order of infos. If no release is within maxEditDist,
// an empty string is returned.
func bestRelease(infos []ReleaseInfo, title string) string {
	want := strutil.MatchKey(title)

	var bestDist int
	var bestMBID string
	for _, info := range infos {
		dist := strutil.Levenshtein(want, strutil.MatchKey(info.Title))
		if dist > maxEditDist {
			continue
		}
		// Require matches of very short strings (e.g. "A" vs. "B") to be exact.
		if dist > 0 && len([]rune(want)) <= dist {
			continue
		}
		if bestMBID == "" || dist < bestDist {
			bestDist = dist
			bestMBID = info.MBID
		}
	}
	if bestMBID != "" {
		log.Debug("Found release", "mbid", bestMBID, "dist", bestDist)
	} else {
		log.Debug("No release matched", "title", title)
	}
	return bestMBID
}
