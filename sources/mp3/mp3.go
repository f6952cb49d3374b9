// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package mp3 builds track lists from metadata in MP3 files.
package mp3

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/derat/mpeg"
	"github.com/derat/taglib-go/taglib"
	"github.com/tunelog/tracklist/album"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads limits the number of files read at once by ReadFiles.
const maxConcurrentReads = 4

// ReadFile reads the passed-in MP3 file and returns a track describing it
// along with its tagged track number (0 if unset). ID3v2 tags take precedence
// over ID3v1 tags.
// If the file doesn't have a title tag, its base name (without extension) is used.
func ReadFile(f *os.File) (tr album.Track, num int, err error) {
	fi, err := f.Stat()
	if err != nil {
		return tr, 0, err
	}

	var title string
	var headerLen, footerLen int64
	if v1, err := mpeg.ReadID3v1Footer(f, fi); err != nil {
		return tr, 0, err
	} else if v1 != nil {
		title = v1.Title
		num = int(v1.Track)
		footerLen = mpeg.ID3v1Length
	}
	if v2, err := taglib.Decode(f, fi.Size()); err != nil {
		// Tolerate missing ID3v2 tags if we got a title from ID3v1.
		if title == "" {
			return tr, 0, err
		}
	} else {
		if t := v2.Title(); t != "" {
			title = t
		}
		if n := int(v2.Track()); n != 0 {
			num = n
		}
		headerLen = int64(v2.TagSize())
	}
	if title = strings.TrimSpace(title); title == "" {
		title = strings.TrimSuffix(filepath.Base(f.Name()), filepath.Ext(f.Name()))
	}

	dur, _, err := mpeg.ComputeAudioDuration(f, fi, headerLen, footerLen)
	if err != nil {
		return tr, 0, err
	}
	return album.NewTrack(title, dur), num, nil
}

// ReadFiles reads the MP3 files at the supplied paths and returns their tracks.
// Tracks are ordered by their tagged track numbers. Tracks without numbers
// follow the numbered ones in the order in which they were supplied.
func ReadFiles(paths []string) ([]album.Track, error) {
	files := make([]numberedTrack, len(paths))
	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			tr, num, err := readPath(p)
			if err != nil {
				return fmt.Errorf("%v: %v", p, err)
			}
			log.Debug("Read MP3 file", "path", p, "title", tr.Title, "number", num)
			files[i] = numberedTrack{tr, num}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sortTracks(files), nil
}

func readPath(p string) (album.Track, int, error) {
	f, err := os.Open(p)
	if err != nil {
		return album.Track{}, 0, err
	}
	defer f.Close()
	return ReadFile(f)
}

// numberedTrack pairs a track with its tagged track number.
type numberedTrack struct {
	tr  album.Track
	num int // 0 if unknown
}

// sortTracks stably sorts files by track number, with unnumbered tracks last.
func sortTracks(files []numberedTrack) []album.Track {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].num, files[j].num
		if a == 0 || b == 0 {
			return a != 0 && b == 0
		}
		return a < b
	})
	tracks := make([]album.Track, len(files))
	for i, f := range files {
		tracks[i] = f.tr
	}
	return tracks
}
