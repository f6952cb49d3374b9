// Copyright 2026 The Tracklist Authors.
// All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tunelog/tracklist/album"
)

// runCmd runs the command with args and stdin and returns its exit code and output.
func runCmd(t *testing.T, args []string, stdin string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Text(t *testing.T) {
	const input = "1. Intro 1:23\n\n2) Song Two\n3. Epic 1:02:03\n"
	for _, tc := range []struct {
		args []string
		want string
	}{
		{nil, "1. Intro 1:23\n2. Song Two\n3. Epic 62:03\n"},
		{[]string{"-format", "payload"}, `[
  {
    "trackNumber": 1,
    "title": "Intro",
    "duration": 83
  },
  {
    "trackNumber": 2,
    "title": "Song Two",
    "duration": null
  },
  {
    "trackNumber": 3,
    "title": "Epic",
    "duration": 3723
  }
]
`},
	} {
		code, stdout, stderr := runCmd(t, tc.args, input)
		if code != 0 {
			t.Errorf("%q exited with %d: %v", tc.args, code, stderr)
		} else if diff := cmp.Diff(tc.want, stdout); diff != "" {
			t.Errorf("%q printed unexpected output:\n%s", tc.args, diff)
		}
	}
}

func TestRun_TextJSON(t *testing.T) {
	code, stdout, stderr := runCmd(t, []string{"-format", "json", "-fold-width"}, "１．Intro　１：２３\n")
	if code != 0 {
		t.Fatalf("Exited with %d: %v", code, stderr)
	}
	var got []album.Track
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("Failed unmarshaling %q: %v", stdout, err)
	}
	if diff := cmp.Diff([]album.Track{album.MakeTrack("Intro", 1, 23)}, got); diff != "" {
		t.Error("Got unexpected tracks:\n" + diff)
	}
}

func TestRun_TextFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tracks.txt")
	if err := os.WriteFile(p, []byte("First 3:00\nSecond\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runCmd(t, []string{p}, "")
	if code != 0 {
		t.Fatalf("Exited with %d: %v", code, stderr)
	}
	if want := "1. First 3:00\n2. Second\n"; stdout != want {
		t.Errorf("Printed %q; want %q", stdout, want)
	}
}

func TestRun_MP3(t *testing.T) {
	const dir = "../../sources/mp3/testdata"
	code, stdout, stderr := runCmd(t, []string{"-source", "mp3",
		filepath.Join(dir, "untitled.mp3"), filepath.Join(dir, "id3v23.mp3")}, "")
	if code != 0 {
		t.Fatalf("Exited with %d: %v", code, stderr)
	}
	if want := "1. Second Song 0:02\n2. untitled 0:03\n"; stdout != want {
		t.Errorf("Printed %q; want %q", stdout, want)
	}
}

func TestRun_Warnings(t *testing.T) {
	for _, input := range []string{"", "  \n\t\n", "3.\n5:00\n1. 3:45\n"} {
		code, stdout, stderr := runCmd(t, nil, input)
		if code != 0 {
			t.Errorf("%q exited with %d", input, code)
		}
		if stdout != "" {
			t.Errorf("%q printed %q", input, stdout)
		}
		if stderr == "" {
			t.Errorf("%q didn't print warning", input)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	for _, tc := range []struct {
		args  []string
		input string
		code  int
	}{
		{[]string{"-source", "bogus"}, "", 2},
		{[]string{"-format", "xml"}, "", 2},
		{[]string{"a.txt", "b.txt"}, "", 2},
		{[]string{"-source", "mp3"}, "", 2},
		{[]string{"-source", "bandcamp"}, "", 2},
		{[]string{"-source", "musicbrainz", "a", "b", "c"}, "", 2},
		{[]string{"-source", "netease"}, "", 2},
		{[]string{"-source", "netease", "https://music.163.com/#/album"}, "", 1},
		{[]string{missing}, "", 1},
		{[]string{"-max-tracks", "2"}, "a\nb\nc\n", 1},
		{[]string{"-source", "bandcamp", "https://example.org/album/foo"}, "", 1},
		{[]string{"-config", missing}, "a\n", 1},
	} {
		if code, _, _ := runCmd(t, tc.args, tc.input); code != tc.code {
			t.Errorf("%q exited with %d; want %d", tc.args, code, tc.code)
		}
	}
}

func TestRun_WriteConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tracklist.toml")
	if code, _, stderr := runCmd(t, []string{"-write-config", p}, ""); code != 0 {
		t.Fatalf("Writing config exited with %d: %v", code, stderr)
	}
	// The written file should be accepted, and max_tracks should apply to text.
	if code, _, stderr := runCmd(t, []string{"-config", p}, "a\nb\n"); code != 0 {
		t.Errorf("Using written config exited with %d: %v", code, stderr)
	}
	// Refuse to overwrite the file.
	if code, _, _ := runCmd(t, []string{"-write-config", p}, ""); code != 1 {
		t.Errorf("Overwriting config exited with %d; want 1", code)
	}
}

func TestRun_MusicBrainz(t *testing.T) {
	const (
		mbid        = "9bfd8b6f-4c2f-4e4e-9d2a-6fb1f3f8d1a2"
		releaseData = `{"id":"` + mbid + `","title":"Abbey Road","date":"1969-09-26",` +
			`"artist-credit":[{"name":"The Beatles","joinphrase":""}],` +
			`"media":[{"position":1,"tracks":[` +
			`{"position":1,"title":"Come Together","length":259946},` +
			`{"position":2,"title":"Her Majesty","length":null}]}]}`
		searchData = `{"releases":[{"id":"` + mbid + `","score":100,"title":"Abbey Road",` +
			`"date":"1969","track-count":2,"artist-credit":[{"name":"The Beatles","joinphrase":""}]}]}`
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ws/2/release":
			io.WriteString(w, searchData)
		case "/ws/2/release/" + mbid:
			io.WriteString(w, releaseData)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	conf := filepath.Join(t.TempDir(), "tracklist.toml")
	if err := os.WriteFile(conf, []byte("[musicbrainz]\nserver_url = \""+srv.URL+"\"\nmax_qps = 100.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	const want = "1. Come Together 4:20\n2. Her Majesty\n"
	for _, args := range [][]string{
		{mbid},
		{"Abbey Road"},
		{"abbey road", "The Beatles"},
	} {
		code, stdout, stderr := runCmd(t, append([]string{"-config", conf, "-source", "musicbrainz"}, args...), "")
		if code != 0 {
			t.Errorf("%q exited with %d: %v", args, code, stderr)
		} else if stdout != want {
			t.Errorf("%q printed %q; want %q", args, stdout, want)
		}
	}
}
