// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package bandcamp extracts album track lists from Bandcamp pages.
package bandcamp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/web"
)

// ExampleURL is a URL that can be displayed to the user.
const ExampleURL = "https://artist.bandcamp.com/album/…"

// pathRegexp matches the path of a Bandcamp album or track page.
var pathRegexp = regexp.MustCompile(`^/(album|track)/[^/]+$`)

// CleanURL returns a normalized version of the supplied Bandcamp album or track URL.
// The scheme is upgraded to HTTPS and query strings and fragments are dropped.
// An error is returned if orig doesn't look like a Bandcamp album or track page.
func CleanURL(orig string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(orig))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("not HTTP(S)")
	}
	host := strings.ToLower(u.Host)
	if !strings.HasSuffix(host, ".bandcamp.com") {
		return "", errors.New("not a bandcamp.com host")
	}
	path := strings.TrimSuffix(u.Path, "/")
	if !pathRegexp.MatchString(path) {
		return "", errors.New("not an album or track page")
	}
	return "https://" + host + path, nil
}

// Fetch fetches the Bandcamp page at pageURL and returns its album information.
// pageURL may also point at a Bandcamp page served from a custom domain.
func Fetch(ctx context.Context, pageURL string) (*album.Import, error) {
	page, err := web.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parsePage(page)
}

// parsePage extracts album information from a parsed Bandcamp page.
func parsePage(page *web.Page) (*album.Import, error) {
	var data albumData
	if err := unmarshalAttr(page, "script[data-tralbum]", "data-tralbum", &data); err != nil {
		return nil, fmt.Errorf("album data: %v", err)
	}

	im := album.Import{
		Title:  data.Current.Title,
		Artist: data.Artist,
		Tracks: make([]album.Track, 0, len(data.TrackInfo)),
	}
	if im.Title == "" {
		// Fall back to the page heading if the embedded data doesn't have a title.
		im.Title, _ = page.Query("#name-section .trackTitle").Text()
	}
	for _, d := range []jsonDate{data.Current.ReleaseDate, data.Current.PublishDate} {
		if t := time.Time(d); !t.IsZero() && !t.Before(bandcampLaunch) {
			im.ReleaseYear = t.Year()
			break
		}
	}
	if img, err := page.Query(`meta[property="og:image"]`).Attr("content"); err == nil {
		im.CoverURL = img
	}
	for _, tr := range data.TrackInfo {
		im.Tracks = append(im.Tracks,
			album.NewTrack(strings.TrimSpace(tr.Title), time.Duration(tr.Duration*float64(time.Second))))
	}
	log.Info("Got Bandcamp album", "title", im.Title, "tracks", im.TrackCount())
	return &im, nil
}

// unmarshalAttr selects the element matched by query and JSON-unmarshals attr.
func unmarshalAttr(page *web.Page, query, attr string, dst interface{}) error {
	val, err := page.Query(query).Attr(attr)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dst)
}

// bandcampLaunch contains the Bandcamp launch date:
// https://blog.bandcamp.com/2008/09/16/hello-cleveland/
var bandcampLaunch = time.Date(2008, 9, 16, 0, 0, 0, 0, time.UTC)

// albumData corresponds to the data-tralbum JSON object embedded in Bandcamp album pages.
type albumData struct {
	Artist  string `json:"artist"`
	Current struct {
		Title       string   `json:"title"`
		ReleaseDate jsonDate `json:"release_date"`
		PublishDate jsonDate `json:"publish_date"`
	} `json:"current"`
	TrackInfo []struct {
		Title    string  `json:"title"`
		Duration float64 `json:"duration"` // seconds
	} `json:"trackinfo"`
}

// jsonDate unmarshals a time provided as a JSON string like "07 Oct 2022 00:00:00 GMT".
type jsonDate time.Time

func (d *jsonDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = jsonDate(time.Time{})
		return nil
	}
	t, err := time.Parse("02 Jan 2006 15:04:05 MST", s)
	*d = jsonDate(t)
	return err
}
