// Copyright 2026 The Tracklist Authors.
// All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/config"
)

// startServer starts a test server using cfg (or the default config if nil).
// Client rate-limiting is disabled unless cfg says otherwise.
func startServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
		cfg.Server.RequestDelay.Duration = 0
	}
	srv, err := newServer(cfg)
	if err != nil {
		t.Fatal("newServer failed:", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

// postTracks posts vals to ts's /tracks endpoint and returns the status code and body.
func postTracks(t *testing.T, ts *httptest.Server, vals url.Values) (int, string) {
	t.Helper()
	resp, err := http.PostForm(ts.URL+"/tracks", vals)
	if err != nil {
		t.Fatal("POST failed:", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal("Failed reading body:", err)
	}
	return resp.StatusCode, string(b)
}

func TestTracks(t *testing.T) {
	ts := startServer(t, nil)
	for _, tc := range []struct {
		vals url.Values
		want tracksResponse
	}{
		{
			url.Values{"input": {"1. Intro 1:23\n2) Song\n\n3. Epic 1:02:03"}},
			tracksResponse{
				Tracks: []album.Track{
					album.MakeTrack("Intro", 1, 23),
					{Title: "Song"},
					album.MakeTrack("Epic", 62, 3),
				},
				Payload: []album.SavedTrack{
					{TrackNumber: 1, Title: "Intro", Duration: intPtr(83)},
					{TrackNumber: 2, Title: "Song"},
					{TrackNumber: 3, Title: "Epic", Duration: intPtr(3723)},
				},
			},
		},
		{
			url.Values{"input": {"１．Ｓｏｎｇ　３：４５"}, "fold_width": {"on"}},
			tracksResponse{
				Tracks:  []album.Track{album.MakeTrack("Song", 3, 45)},
				Payload: []album.SavedTrack{{TrackNumber: 1, Title: "Song", Duration: intPtr(225)}},
			},
		},
		{
			url.Values{"input": {"  \n"}},
			tracksResponse{Tracks: []album.Track{}, Payload: []album.SavedTrack{}, Warning: "no track list supplied"},
		},
		{
			url.Values{"input": {"3.\n5:00\n1. 3:45"}},
			tracksResponse{Tracks: []album.Track{}, Payload: []album.SavedTrack{}, Warning: "no valid tracks found"},
		},
	} {
		code, body := postTracks(t, ts, tc.vals)
		if code != http.StatusOK {
			t.Errorf("%v returned %d: %v", tc.vals, code, body)
			continue
		}
		var got tracksResponse
		if err := json.Unmarshal([]byte(body), &got); err != nil {
			t.Errorf("%v returned bad JSON %q: %v", tc.vals, body, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%v returned bad response:\n%s", tc.vals, diff)
		}
	}
}

func TestTracks_HTML(t *testing.T) {
	ts := startServer(t, nil)
	code, body := postTracks(t, ts, url.Values{"input": {"Intro 1:23"}, "format": {"html"}})
	if code != http.StatusOK {
		t.Fatalf("Got %d: %v", code, body)
	}
	for _, want := range []string{"Intro", "1:23", "Intro 1:23</textarea>"} {
		if !strings.Contains(body, want) {
			t.Errorf("Page doesn't contain %q", want)
		}
	}
}

func TestTracks_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RequestDelay.Duration = 0
	cfg.Server.MaxReqBytes = 1024
	cfg.Parse.MaxTracks = 2
	ts := startServer(t, cfg)

	for _, tc := range []struct {
		vals url.Values
		code int
	}{
		{url.Values{"input": {"a\nb\nc"}}, http.StatusBadRequest},
		{url.Values{"input": {strings.Repeat("x", 2048)}}, http.StatusRequestEntityTooLarge},
		{url.Values{"source": {"bogus"}}, http.StatusBadRequest},
		{url.Values{"source": {"bandcamp"}, "url": {"https://example.org/album/foo"}}, http.StatusBadRequest},
		{url.Values{"source": {"netease"}, "url": {"https://music.163.com/#/album"}}, http.StatusBadRequest},
		{url.Values{"source": {"musicbrainz"}}, http.StatusBadRequest},
		{url.Values{"source": {"musicbrainz"}, "mbid": {"not-an-mbid"}}, http.StatusBadRequest},
	} {
		if code, body := postTracks(t, ts, tc.vals); code != tc.code {
			t.Errorf("%v returned %d (%q); want %d", tc.vals, code, body, tc.code)
		}
	}

	resp, err := http.Get(ts.URL + "/tracks")
	if err != nil {
		t.Fatal("GET failed:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /tracks returned %d; want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestTracks_Multipart(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RequestDelay.Duration = 0
	cfg.Server.MaxReqBytes = 1024
	ts := startServer(t, cfg)

	for _, tc := range []struct {
		input string
		code  int
	}{
		{"1. Intro 1:23", http.StatusOK},
		{strings.Repeat("x", 2048), http.StatusRequestEntityTooLarge},
	} {
		var b bytes.Buffer
		mw := multipart.NewWriter(&b)
		if err := mw.WriteField("input", tc.input); err != nil {
			t.Fatal(err)
		}
		if err := mw.Close(); err != nil {
			t.Fatal(err)
		}
		resp, err := http.Post(ts.URL+"/tracks", mw.FormDataContentType(), &b)
		if err != nil {
			t.Fatal("POST failed:", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tc.code {
			t.Errorf("%d-byte multipart input returned %d (%q); want %d",
				len(tc.input), resp.StatusCode, body, tc.code)
		} else if tc.code == http.StatusOK && !strings.Contains(string(body), `"title":"Intro"`) {
			t.Errorf("Multipart input returned %q", body)
		}
	}
}

func TestTracks_MusicBrainz(t *testing.T) {
	const (
		mbid        = "9bfd8b6f-4c2f-4e4e-9d2a-6fb1f3f8d1a2"
		releaseData = `{"id":"` + mbid + `","title":"Abbey Road","date":"1969-09-26",` +
			`"artist-credit":[{"name":"The Beatles","joinphrase":""}],` +
			`"media":[{"position":1,"tracks":[{"position":1,"title":"Come Together","length":259946}]}]}`
		searchData = `{"releases":[{"id":"` + mbid + `","score":100,"title":"Abbey Road",` +
			`"date":"1969","track-count":1,"artist-credit":[{"name":"The Beatles","joinphrase":""}]}]}`
	)
	mb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ws/2/release":
			io.WriteString(w, searchData)
		case "/ws/2/release/" + mbid:
			io.WriteString(w, releaseData)
		default:
			http.NotFound(w, r)
		}
	}))
	defer mb.Close()

	cfg := config.Default()
	cfg.Server.RequestDelay.Duration = 0
	cfg.MusicBrainz.ServerURL = mb.URL
	cfg.MusicBrainz.MaxQPS = 100
	ts := startServer(t, cfg)

	want := tracksResponse{
		Tracks:  []album.Track{album.MakeTrack("Come Together", 4, 20)},
		Payload: []album.SavedTrack{{TrackNumber: 1, Title: "Come Together", Duration: intPtr(260)}},
	}
	for _, vals := range []url.Values{
		{"source": {"musicbrainz"}, "mbid": {mbid}},
		{"source": {"musicbrainz"}, "album": {"abbey road"}, "artist": {"The Beatles"}},
	} {
		code, body := postTracks(t, ts, vals)
		if code != http.StatusOK {
			t.Errorf("%v returned %d: %v", vals, code, body)
			continue
		}
		var got tracksResponse
		if err := json.Unmarshal([]byte(body), &got); err != nil {
			t.Errorf("%v returned bad JSON %q: %v", vals, body, err)
		} else if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%v returned bad response:\n%s", vals, diff)
		}
	}

	vals := url.Values{"source": {"musicbrainz"}, "album": {"Let It Be"}}
	if code, body := postTracks(t, ts, vals); code != http.StatusNotFound {
		t.Errorf("%v returned %d (%q); want %d", vals, code, body, http.StatusNotFound)
	}
}

func TestTracks_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RequestDelay.Duration = time.Hour
	ts := startServer(t, cfg)

	vals := url.Values{"input": {"Song"}}
	if code, body := postTracks(t, ts, vals); code != http.StatusOK {
		t.Fatalf("First request returned %d: %v", code, body)
	}
	if code, _ := postTracks(t, ts, vals); code != http.StatusTooManyRequests {
		t.Errorf("Second request returned %d; want %d", code, http.StatusTooManyRequests)
	}
}

func TestIndex(t *testing.T) {
	ts := startServer(t, nil)
	for _, tc := range []struct {
		path   string
		code   int
		substr string
	}{
		{"/", http.StatusOK, `action="/tracks"`},
		{"/robots.txt", http.StatusOK, "User-agent: *"},
		{"/bogus", http.StatusNotFound, ""},
	} {
		resp, err := http.Get(ts.URL + tc.path)
		if err != nil {
			t.Fatalf("GET %v failed: %v", tc.path, err)
		}
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("Reading %v failed: %v", tc.path, err)
		}
		if resp.StatusCode != tc.code {
			t.Errorf("GET %v returned %d; want %d", tc.path, resp.StatusCode, tc.code)
		} else if !strings.Contains(string(b), tc.substr) {
			t.Errorf("GET %v didn't contain %q", tc.path, tc.substr)
		}
	}
}

func TestFormBool(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"", false},
		{"0", false},
		{"off", false},
		{"1", true},
		{"on", true},
		{"TRUE", true},
	} {
		if got := formBool(tc.in); got != tc.want {
			t.Errorf("formBool(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}

func intPtr(v int) *int { return &v }
