// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package mbdb fetches album track lists from the MusicBrainz database.
package mbdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/cache"
	"golang.org/x/time/rate"
)

const (
	// https://musicbrainz.org/doc/MusicBrainz_API/Rate_Limiting
	defaultMaxQPS  = 1
	rateBucketSize = 1
	userAgentFmt   = "tracklist/%s ( https://github.com/tunelog/tracklist )"

	cacheSize = 64 // releases to keep in memory

	defaultServerURL   = "https://musicbrainz.org"
	coverArtURLFmt     = "https://coverartarchive.org/release/%s/front"
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// DB queries the MusicBrainz database using its API.
// See https://musicbrainz.org/doc/MusicBrainz_API.
type DB struct {
	releases *cache.LRU[*album.Import] // keyed by release MBID

	limiter         *rate.Limiter // rate-limits network requests
	client          *http.Client
	disallowQueries bool   // don't allow network traffic
	serverURL       string // base server URL without trailing slash
	version         string // included in User-Agent header
}

// NewDB returns a new DB object.
func NewDB(opts ...Option) *DB {
	db := DB{
		releases:  cache.NewLRU[*album.Import](cacheSize),
		limiter:   rate.NewLimiter(defaultMaxQPS, rateBucketSize),
		client:    http.DefaultClient,
		serverURL: defaultServerURL,
		version:   "dev",
	}
	for _, o := range opts {
		o(&db)
	}
	return &db
}

// Option can be passed to NewDB to configure the database.
type Option func(db *DB)

// DisallowQueries is an Option that configures DB to report an error
// when it would need to perform a query over the network.
var DisallowQueries = func(db *DB) { db.disallowQueries = true }

// ServerURL returns an Option that configures DB to make calls to the specified
// base server URL, e.g. "https://musicbrainz.org" or "https://test.musicbrainz.org".
func ServerURL(u string) Option {
	return func(db *DB) { db.serverURL = strings.TrimRight(u, "/") }
}

// Version returns an Option that sets the application version for the User-Agent header.
func Version(v string) Option { return func(db *DB) { db.version = v } }

// MaxQPS returns an Option that overrides the default limit of one query per second.
func MaxQPS(qps float64) Option {
	return func(db *DB) { db.limiter.SetLimit(rate.Limit(qps)) }
}

// HTTPClient returns an Option that makes DB send requests using cl.
func HTTPClient(cl *http.Client) Option { return func(db *DB) { db.client = cl } }

// ReleaseInfo summarizes a release returned by SearchReleases.
type ReleaseInfo struct {
	MBID       string `json:"mbid"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Year       int    `json:"year,omitempty"`
	TrackCount int    `json:"trackCount"`
	Score      int    `json:"score"`
}

// artistCredit corresponds to an element of an "artist-credit" array.
type artistCredit []struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

func (ac artistCredit) String() string {
	var s string
	for _, c := range ac {
		s += c.Name + c.JoinPhrase
	}
	return s
}

// SearchReleases searches for releases matching the supplied album title and/or artist name.
// At least one of title and artist must be non-empty. If limit is zero or negative,
// a default is used.
func (db *DB) SearchReleases(ctx context.Context, title, artist string, limit int) ([]ReleaseInfo, error) {
	var terms []string
	if title = strings.TrimSpace(title); title != "" {
		terms = append(terms, "release:"+quoteQuery(title))
	}
	if artist = strings.TrimSpace(artist); artist != "" {
		terms = append(terms, "artist:"+quoteQuery(artist))
	}
	if len(terms) == 0 {
		return nil, errors.New("album or artist required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	} else if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	log.Debug("Searching for releases", "title", title, "artist", artist)
	path := fmt.Sprintf("/ws/2/release?query=%s&limit=%d&fmt=json",
		url.QueryEscape(strings.Join(terms, " AND ")), limit)
	r, err := db.doQuery(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var data struct {
		Releases []struct {
			ID           string       `json:"id"`
			Score        int          `json:"score"`
			Title        string       `json:"title"`
			Date         string       `json:"date"`
			TrackCount   int          `json:"track-count"`
			ArtistCredit artistCredit `json:"artist-credit"`
		} `json:"releases"`
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	infos := make([]ReleaseInfo, len(data.Releases))
	for i, rel := range data.Releases {
		infos[i] = ReleaseInfo{
			MBID:       rel.ID,
			Title:      rel.Title,
			Artist:     rel.ArtistCredit.String(),
			Year:       parseYear(rel.Date),
			TrackCount: rel.TrackCount,
			Score:      rel.Score,
		}
	}
	log.Debug("Got search results", "count", len(infos))
	return infos, nil
}

// GetRelease returns the release with the supplied MBID.
// Tracks from all of the release's media are returned in order.
func (db *DB) GetRelease(ctx context.Context, mbid string) (*album.Import, error) {
	if !IsMBID(mbid) {
		return nil, fmt.Errorf("malformed MBID %q", mbid)
	}
	mbid = strings.ToLower(mbid)
	if im, ok := db.releases.Get(mbid); ok {
		return im, nil
	}

	log.Info("Requesting release", "mbid", mbid)
	r, err := db.doQuery(ctx, "/ws/2/release/"+mbid+"?inc=recordings+artist-credits&fmt=json")
	if err == errNotFound {
		return nil, fmt.Errorf("release %v not found", mbid)
	} else if err != nil {
		return nil, err
	}
	defer r.Close()

	var data struct {
		Title           string       `json:"title"`
		Date            string       `json:"date"`
		ArtistCredit    artistCredit `json:"artist-credit"`
		CoverArtArchive struct {
			Front bool `json:"front"`
		} `json:"cover-art-archive"`
		Media []struct {
			Tracks []struct {
				Title  string `json:"title"`
				Length *int64 `json:"length"` // milliseconds
			} `json:"tracks"`
		} `json:"media"`
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}

	im := album.Import{
		Title:       data.Title,
		Artist:      data.ArtistCredit.String(),
		ReleaseYear: parseYear(data.Date),
		Tracks:      make([]album.Track, 0),
	}
	if data.CoverArtArchive.Front {
		im.CoverURL = fmt.Sprintf(coverArtURLFmt, mbid)
	}
	for _, med := range data.Media {
		for _, tr := range med.Tracks {
			var d time.Duration
			if tr.Length != nil {
				d = time.Duration(*tr.Length) * time.Millisecond
			}
			im.Tracks = append(im.Tracks, album.NewTrack(tr.Title, d))
		}
	}
	log.Info("Got release", "title", im.Title, "tracks", im.TrackCount())
	db.releases.Set(mbid, &im)
	return &im, nil
}

// errNotFound is returned by doQuery if a 404 error was received.
var errNotFound = errors.New("not found")

// doQuery sends a GET request for path and returns the response body.
// The caller is responsible for closing the body if the error is nil.
func (db *DB) doQuery(ctx context.Context, path string) (io.ReadCloser, error) {
	if db.disallowQueries {
		return nil, errors.New("querying not allowed")
	}

	// Wait until we can perform a query.
	if err := db.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := db.serverURL + path
	log.Debug("Sending GET request", "url", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fmt.Sprintf(userAgentFmt, db.version))
	req.Header.Set("Accept", "application/json")

	resp, err := db.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("server returned %v: %v", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// quoteQuery quotes s for use as a Lucene search term.
func quoteQuery(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// parseYear returns the year from a date like "2004-05-12", "2004-05", or "2004".
// 0 is returned if the year can't be parsed.
func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// mbidRegexp matches a MusicBrainz ID (i.e. a UUID).
var mbidRegexp = regexp.MustCompile(
	`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsMBID returns true if mbid looks like a correctly-formatted MBID (i.e. a UUID).
// Note that this method does not check that the MBID is actually assigned to anything.
func IsMBID(mbid string) bool { return mbidRegexp.MatchString(mbid) }
