// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package text parses track lists pasted as free-form text.
//
// Each non-blank line describes one track, optionally preceded by an ordinal
// like "1." or "02)" and optionally followed by a length like "3:45" or "1:02:03":
//
//	Intro 1:23
//	02) First Song 4:56
//	3. Untimed Interlude
//	Long Closer 1:02:03
package text

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/strutil"
)

var (
	// ErrEmptyInput is returned when the input is empty or contains only whitespace.
	ErrEmptyInput = errors.New("no track list supplied")
	// ErrNoValidTracks is returned when the input didn't contain any line with a title.
	ErrNoValidTracks = errors.New("no valid tracks found")
)

// IsWarning returns true if err should be reported to the user as a warning
// (i.e. nothing was imported) rather than as a failure.
func IsWarning(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrNoValidTracks)
}

// LimitError is returned when the input contains more tracks than permitted by MaxTracks.
type LimitError struct{ Max int }

func (e *LimitError) Error() string { return fmt.Sprintf("more than %d tracks", e.Max) }

// config is modified by Options to configure Parse's behavior.
type config struct {
	maxTracks int
	foldWidth bool
}

// Option can be passed to Parse and Read to configure their behavior.
type Option func(*config)

// MaxTracks returns an Option that limits the number of tracks that can be parsed.
// If the input describes more tracks, a *LimitError is returned.
func MaxTracks(max int) Option { return func(c *config) { c.maxTracks = max } }

// FoldWidth returns an Option that replaces full-width digits, punctuation, and letters
// (as typically found in track lists copied from CJK sites) with their narrow forms
// before parsing.
func FoldWidth() Option { return func(c *config) { c.foldWidth = true } }

var (
	// ordinalRegexp matches a leading track number like "1." or "12) ".
	// \s only matches ASCII whitespace, so \p{Z} is added for ideographic
	// and non-breaking spaces.
	ordinalRegexp = regexp.MustCompile(`^\d+[.)][\s\p{Z}]*`)

	// lengthRegexp matches a trailing track length like "3:45" or "1:02:03".
	// The length must be separated from the title by whitespace (or make up the whole line).
	lengthRegexp = regexp.MustCompile(`(?:^|[\s\p{Z}]+)` +
		`(\d+)` + // hours or minutes
		`:(\d\d)` + // minutes or seconds
		`(?::(\d\d))?` + // seconds if hours were supplied
		`$`)
)

// Parse parses the tracks described by s, one per line.
// Lines that don't contain a title are skipped.
//
// ErrEmptyInput is returned if s is blank and ErrNoValidTracks is returned if
// no line contained a title. In both cases, an empty (non-nil) slice is also returned.
func Parse(s string, opts ...Option) ([]album.Track, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	tracks := make([]album.Track, 0)
	if strings.TrimSpace(s) == "" {
		return tracks, ErrEmptyInput
	}
	if cfg.foldWidth {
		s = strutil.Narrow(s)
	}

	for _, ln := range strings.Split(s, "\n") {
		tr, ok := parseLine(ln)
		if !ok {
			continue
		}
		if cfg.maxTracks > 0 && len(tracks) == cfg.maxTracks {
			return nil, &LimitError{cfg.maxTracks}
		}
		tracks = append(tracks, tr)
	}
	if len(tracks) == 0 {
		return tracks, ErrNoValidTracks
	}
	return tracks, nil
}

// Read reads all of r and passes it to Parse.
func Read(r io.Reader, opts ...Option) ([]album.Track, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(b), opts...)
}

// parseLine parses a single line of input.
// false is returned if the line doesn't contain a title.
func parseLine(ln string) (album.Track, bool) {
	ln = strings.TrimSpace(ln)
	if ln == "" {
		return album.Track{}, false
	}
	if loc := ordinalRegexp.FindStringIndex(ln); loc != nil {
		ln = ln[loc[1]:]
	}

	var tr album.Track
	if ms := lengthRegexp.FindStringSubmatchIndex(ln); ms != nil {
		// The leading component is unbounded, so it can overflow int.
		// Treat that the same as a line without a length.
		if min, sec, ok := parseLength(ln, ms); ok {
			tr.Minutes, tr.Seconds = &min, &sec
			ln = ln[:ms[0]]
		}
	}

	tr.Title = strings.TrimSpace(ln)
	return tr, tr.Title != ""
}

// parseLength converts the groups matched by lengthRegexp in ln into minutes and seconds.
// ms is the index slice returned by FindStringSubmatchIndex.
func parseLength(ln string, ms []int) (min, sec int, ok bool) {
	group := func(i int) string {
		if ms[2*i] < 0 {
			return ""
		}
		return ln[ms[2*i]:ms[2*i+1]]
	}
	first, err := strconv.Atoi(group(1))
	if err != nil {
		return 0, 0, false
	}
	second, _ := strconv.Atoi(group(2)) // always two digits
	if third := group(3); third != "" {
		if first > (math.MaxInt-second)/60 {
			return 0, 0, false
		}
		s, _ := strconv.Atoi(third)
		return first*60 + second, s, true
	}
	return first, second, true
}

// Write writes tracks to w in the format accepted by Parse, e.g. "3. Title 4:05".
// Tracks are numbered by position.
func Write(w io.Writer, tracks []album.Track) error {
	for i, tr := range tracks {
		ln := fmt.Sprintf("%d. %s", i+1, tr.Title)
		if tr.Minutes != nil {
			var sec int
			if tr.Seconds != nil {
				sec = *tr.Seconds
			}
			ln += fmt.Sprintf(" %d:%02d", *tr.Minutes, sec)
		}
		if _, err := io.WriteString(w, ln+"\n"); err != nil {
			return err
		}
	}
	return nil
}
