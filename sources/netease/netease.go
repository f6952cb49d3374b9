// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package netease extracts album track lists from NetEase Cloud Music.
package netease

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/web"
)

const (
	// ExampleURL is a URL that can be displayed to the user.
	ExampleURL = "https://music.163.com/#/album?id=…"

	apiBase   = "https://music.163.com/api/album/"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	referer   = "https://music.163.com/"

	codeOK            = 200
	codeLoginRequired = -462
)

// ErrLoginRequired is returned by Fetch when the API refuses anonymous requests.
var ErrLoginRequired = errors.New("NetEase requires login")

var (
	idRegexp = regexp.MustCompile(`^\d+$`)
	// urlRegexps match album IDs in URLs, in order of preference.
	urlRegexps = []*regexp.Regexp{
		regexp.MustCompile(`album[?/]id[=/](\d+)`),
		regexp.MustCompile(`album/(\d+)`),
		regexp.MustCompile(`id=(\d+)`),
	}
)

// AlbumID returns the numeric album ID from s, which may be either a bare ID or
// an album URL like "https://music.163.com/#/album?id=123".
func AlbumID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if idRegexp.MatchString(s) {
		return s, nil
	}
	for _, re := range urlRegexps {
		if ms := re.FindStringSubmatch(s); ms != nil {
			return ms[1], nil
		}
	}
	return "", fmt.Errorf("no album ID in %q", s)
}

// Fetch fetches the album with the supplied ID.
func Fetch(ctx context.Context, id string) (*album.Import, error) {
	return fetch(ctx, apiBase, id)
}

func fetch(ctx context.Context, base, id string) (*album.Import, error) {
	hdr := http.Header{}
	hdr.Set("User-Agent", userAgent)
	hdr.Set("Referer", referer)

	var data albumResponse
	if err := web.FetchJSON(ctx, base+id, hdr, &data); err != nil {
		return nil, err
	}
	switch data.Code {
	case 0, codeOK:
	case codeLoginRequired:
		return nil, ErrLoginRequired
	default:
		return nil, fmt.Errorf("NetEase error code %d", data.Code)
	}
	if data.Album == nil {
		return nil, errors.New("album data not found")
	}

	im := album.Import{
		Title:    data.Album.Name,
		Artist:   data.Album.Artist.Name,
		CoverURL: data.Album.PicURL,
		Tracks:   make([]album.Track, 0, len(data.Songs)),
	}
	if data.Album.PublishTime > 0 {
		im.ReleaseYear = time.UnixMilli(data.Album.PublishTime).UTC().Year()
	}
	for _, s := range data.Songs {
		var d time.Duration
		if s.Duration != nil {
			// Lengths are truncated to whole seconds.
			d = time.Duration(*s.Duration/1000) * time.Second
		}
		im.Tracks = append(im.Tracks, album.NewTrack(strings.TrimSpace(s.Name), d))
	}
	log.Info("Got NetEase album", "title", im.Title, "tracks", im.TrackCount())
	return &im, nil
}

// albumResponse corresponds to the JSON object returned by /api/album/<id>.
type albumResponse struct {
	Code  int `json:"code"`
	Album *struct {
		Name        string `json:"name"`
		PicURL      string `json:"picUrl"`
		PublishTime int64  `json:"publishTime"` // milliseconds since epoch
		Artist      struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"album"`
	Songs []struct {
		Name     string `json:"name"`
		Duration *int64 `json:"duration"` // milliseconds
	} `json:"songs"`
}
