// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package main implements a command-line tool for building album track lists.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/config"
	"github.com/tunelog/tracklist/mbdb"
	"github.com/tunelog/tracklist/render"
	"github.com/tunelog/tracklist/sources/bandcamp"
	"github.com/tunelog/tracklist/sources/mp3"
	"github.com/tunelog/tracklist/sources/netease"
	"github.com/tunelog/tracklist/sources/text"
)

const (
	sourceText        = "text"
	sourceMP3         = "mp3"
	sourceBandcamp    = "bandcamp"
	sourceMusicBrainz = "musicbrainz"
	sourceNetEase     = "netease"

	actionPrint = "print"
	actionPage  = "page"

	formatText    = "text"
	formatJSON    = "json"
	formatPayload = "payload"
)

// version is set at build time via -ldflags.
var version = "dev"

// errUsage is returned by loadTracks when the positional arguments are wrong.
var errUsage = errors.New("bad arguments")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run runs the command with the supplied arguments (excluding the program name)
// and returns the process's exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tracklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: tracklist [flag]... [FILE|URL|MBID|ALBUM [ARTIST]]...\n"+
			"Builds an album track list from text, MP3 files, Bandcamp, MusicBrainz, or NetEase.\n\n")
		fs.PrintDefaults()
	}

	source := newEnumFlag(sourceText, sourceText, sourceMP3, sourceBandcamp, sourceMusicBrainz, sourceNetEase)
	action := newEnumFlag(actionPrint, actionPrint, actionPage)
	format := newEnumFlag(formatText, formatText, formatJSON, formatPayload)

	fs.Var(action, "action", fmt.Sprintf("Action to perform with tracks (%v)", action.allowedList()))
	addr := fs.String("addr", "", `Serve page over HTTP at address (e.g. "localhost:8000") instead of via file`)
	confPath := fs.String("config", "", "TOML file containing settings")
	foldWidth := fs.Bool("fold-width", false, "Fold full-width characters before parsing text")
	fs.Var(format, "format", fmt.Sprintf("Output format for print action (%v)", format.allowedList()))
	maxTracks := fs.Int("max-tracks", -1, "Maximum tracks to accept from text (0 for no limit; default from config)")
	fs.Var(source, "source", fmt.Sprintf("Source of tracks (%v)", source.allowedList()))
	verbose := fs.Bool("verbose", false, "Log debugging information")
	writeConf := fs.String("write-config", "", "Write example settings to file and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	log.SetOutput(stderr)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *writeConf != "" {
		if err := config.WriteExample(*writeConf); err != nil {
			fmt.Fprintln(stderr, "Failed writing config:", err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(*confPath)
	if err != nil {
		fmt.Fprintln(stderr, "Failed loading config:", err)
		return 1
	}
	if *foldWidth {
		cfg.Parse.FoldWidth = true
	}
	if *maxTracks >= 0 {
		cfg.Parse.MaxTracks = *maxTracks
	}

	im, err := loadTracks(ctx, source.val, fs.Args(), stdin, cfg)
	if text.IsWarning(err) {
		fmt.Fprintln(stderr, err)
		return 0
	} else if err == errUsage {
		fs.Usage()
		return 2
	} else if err != nil {
		fmt.Fprintf(stderr, "Failed getting tracks from %v: %v\n", source.val, err)
		return 1
	}
	log.Debug("Got tracks", "source", source.val, "count", im.TrackCount())

	switch action.val {
	case actionPrint:
		err = printTracks(stdout, format.val, im.Tracks)
	case actionPage:
		opts := []render.Option{render.Version(version), render.Album(im)}
		if *addr != "" {
			err = render.OpenHTTP(ctx, *addr, im.Tracks, opts...)
		} else {
			err = render.OpenFile(im.Tracks, opts...)
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, "Failed writing tracks:", err)
		return 1
	}
	return 0
}

// loadTracks gets tracks from src using the supplied positional arguments.
// Text sources that don't contain any tracks produce a warning error
// (see text.IsWarning).
func loadTracks(ctx context.Context, src string, args []string,
	stdin io.Reader, cfg *config.Config) (*album.Import, error) {
	switch src {
	case sourceText:
		var r io.Reader
		switch len(args) {
		case 0:
			r = stdin
		case 1:
			f, err := os.Open(args[0])
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		default:
			return nil, errUsage
		}
		opts := []text.Option{text.MaxTracks(cfg.Parse.MaxTracks)}
		if cfg.Parse.FoldWidth {
			opts = append(opts, text.FoldWidth())
		}
		tracks, err := text.Read(r, opts...)
		if err != nil {
			return nil, err
		}
		return &album.Import{Tracks: tracks}, nil

	case sourceMP3:
		if len(args) == 0 {
			return nil, errUsage
		}
		tracks, err := mp3.ReadFiles(args)
		if err != nil {
			return nil, err
		}
		return &album.Import{Tracks: tracks}, nil

	case sourceBandcamp:
		if len(args) != 1 {
			return nil, errUsage
		}
		u, err := bandcamp.CleanURL(args[0])
		if err != nil {
			return nil, fmt.Errorf("%q isn't like %v: %w", args[0], bandcamp.ExampleURL, err)
		}
		return bandcamp.Fetch(ctx, u)

	case sourceMusicBrainz:
		if len(args) < 1 || len(args) > 2 {
			return nil, errUsage
		}
		db := mbdb.NewDB(mbdb.Version(version),
			mbdb.ServerURL(cfg.MusicBrainz.ServerURL),
			mbdb.MaxQPS(cfg.MusicBrainz.MaxQPS))
		mbid := args[0]
		if len(args) == 2 || !mbdb.IsMBID(mbid) {
			var artist string
			if len(args) == 2 {
				artist = args[1]
			}
			var err error
			if mbid, err = db.FindRelease(ctx, args[0], artist); err != nil {
				return nil, err
			}
			log.Info("Found release", "mbid", mbid)
		}
		return db.GetRelease(ctx, mbid)

	case sourceNetEase:
		if len(args) != 1 {
			return nil, errUsage
		}
		id, err := netease.AlbumID(args[0])
		if err != nil {
			return nil, fmt.Errorf("%q isn't like %v: %w", args[0], netease.ExampleURL, err)
		}
		return netease.Fetch(ctx, id)
	}
	return nil, fmt.Errorf("unknown source %q", src)
}

// printTracks writes tracks to w in the supplied format.
func printTracks(w io.Writer, format string, tracks []album.Track) error {
	switch format {
	case formatText:
		return text.Write(w, tracks)
	case formatJSON:
		return writeJSON(w, tracks)
	case formatPayload:
		return writeJSON(w, album.SaveTracks(tracks))
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
