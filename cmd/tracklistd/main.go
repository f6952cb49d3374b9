// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package main implements a web server for parsing album track lists.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunelog/tracklist/album"
	"github.com/tunelog/tracklist/config"
	"github.com/tunelog/tracklist/mbdb"
	"github.com/tunelog/tracklist/render"
	"github.com/tunelog/tracklist/sources/bandcamp"
	"github.com/tunelog/tracklist/sources/netease"
	"github.com/tunelog/tracklist/sources/text"
)

var version = "dev"

func init() {
	// When deploying to App Engine, app.yaml passes the version string via an environment variable.
	if v := os.Getenv("APP_VERSION"); v != "" {
		version = v
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage %v: [flag]...\n"+
			"Runs a web server for parsing album track lists.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	addr := flag.String("addr", "", `Address to listen on for HTTP requests (default from config)`)
	confPath := flag.String("config", "", "TOML file containing settings")
	verbose := flag.Bool("verbose", false, "Log debugging information")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	cfg, err := config.Load(*confPath)
	if err != nil {
		log.Fatal("Failed loading config", "err", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	// Handle App Engine specifying the port to listen on.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}

	srv, err := newServer(cfg)
	if err != nil {
		log.Fatal("Failed creating server", "err", err)
	}
	hs := http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Listening", "addr", cfg.Server.Addr, "version", version)
	if err := hs.ListenAndServe(); err != nil {
		log.Fatal("Failed listening", "err", err)
	}
}

// server handles HTTP requests.
type server struct {
	cfg  *config.Config
	mux  *http.ServeMux
	form []byte // page with an empty form
	rm   *rateMap
	db   *mbdb.DB
}

func newServer(cfg *config.Config) (*server, error) {
	// Just generate the empty page once.
	var b bytes.Buffer
	if err := render.Write(&b, nil, render.Version(version)); err != nil {
		return nil, fmt.Errorf("generating page: %w", err)
	}

	db := mbdb.NewDB(mbdb.Version(version),
		mbdb.ServerURL(cfg.MusicBrainz.ServerURL),
		mbdb.MaxQPS(cfg.MusicBrainz.MaxQPS))
	srv := &server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		form: b.Bytes(),
		rm:   newRateMap(cfg.Server.RequestDelay.Duration, cfg.Server.RateMapSize),
		db:   db,
	}
	srv.mux.HandleFunc("/", srv.handleIndex)
	srv.mux.HandleFunc("/tracks", srv.handleTracks)
	srv.mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "User-agent: *\nAllow: /\n")
	})
	return srv, nil
}

func (srv *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	srv.mux.ServeHTTP(w, req)
}

func (srv *server) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(srv.form); err != nil {
		log.Warn("Failed writing page", "err", err)
	}
}

// tracksResponse is returned as JSON by /tracks.
type tracksResponse struct {
	Tracks  []album.Track      `json:"tracks"`
	Payload []album.SavedTrack `json:"payload"`
	Warning string             `json:"warning,omitempty"`
}

// handleTracks parses tracks submitted via the form.
// The result is returned as JSON unless the "format" parameter is "html".
func (srv *server) handleTracks(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), srv.cfg.Server.RequestTimeout.Duration)
	defer cancel()

	caddr := clientAddr(req)
	im, warning, err := srv.getTracksForRequest(ctx, w, req)
	if err != nil {
		var msg string
		code := http.StatusInternalServerError
		var herr *httpError
		if errors.As(err, &herr) {
			code = herr.code
			msg = herr.msg
		}
		if msg == "" {
			msg = http.StatusText(code)
		}
		log.Warn("Sending error", "code", code, "client", caddr, "err", err)
		http.Error(w, msg, code)
		return
	}
	log.Info("Returning tracks", "count", im.TrackCount(), "client", caddr)

	if req.FormValue("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		opts := []render.Option{render.Version(version), render.Input(req.FormValue("input"))}
		if im.Title != "" {
			opts = append(opts, render.Album(im))
		}
		if warning != "" {
			opts = append(opts, render.Warning(warning))
		}
		if err := render.Write(w, im.Tracks, opts...); err != nil {
			log.Warn("Failed writing page", "client", caddr, "err", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tracksResponse{
		Tracks:  im.Tracks,
		Payload: album.SaveTracks(im.Tracks),
		Warning: warning,
	}); err != nil {
		log.Warn("Failed sending tracks", "client", caddr, "err", err)
	}
}

// httpError implements the error interface but also wraps an HTTP status code
// and message that should be returned to the user.
type httpError struct {
	code int    // HTTP status code
	msg  string // message to display to user; if empty, generated from code
	err  error  // actual underlying error to log
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

// httpErrorf returns an *httpError with the supplied status code and an err
// field constructed from format and args. The user-visible message will just
// be generated from code.
func httpErrorf(code int, format string, args ...interface{}) *httpError {
	return &httpError{code: code, err: fmt.Errorf(format, args...)}
}

// getTracksForRequest gets tracks in response to a /tracks request to the server.
// A non-empty warning is returned if the input didn't contain any tracks.
func (srv *server) getTracksForRequest(ctx context.Context, w http.ResponseWriter, req *http.Request) (
	im *album.Import, warning string, err error) {
	if req.Method != http.MethodPost {
		return nil, "", httpErrorf(http.StatusMethodNotAllowed, "bad method %q", req.Method)
	}

	caddr := clientAddr(req)
	ip, _, err := net.SplitHostPort(caddr)
	if err != nil {
		ip = caddr
	}
	if !srv.rm.attempt(ip, time.Now()) {
		return nil, "", &httpError{
			code: http.StatusTooManyRequests,
			msg:  "Please wait a few seconds and try again",
			err:  errors.New("too many requests"),
		}
	}

	if err := parseForm(w, req, srv.cfg.Server.MaxReqBytes); err != nil {
		return nil, "", err
	}

	src := req.FormValue("source")
	log.Debug("Handling request", "bytes", req.ContentLength, "source", src, "client", caddr)

	switch src {
	case "", "text":
		opts := []text.Option{text.MaxTracks(srv.cfg.Parse.MaxTracks)}
		if srv.cfg.Parse.FoldWidth || formBool(req.FormValue("fold_width")) {
			opts = append(opts, text.FoldWidth())
		}
		tracks, err := text.Parse(req.FormValue("input"), opts...)
		if text.IsWarning(err) {
			return &album.Import{Tracks: tracks}, err.Error(), nil
		}
		var lerr *text.LimitError
		if errors.As(err, &lerr) {
			return nil, "", &httpError{
				code: http.StatusBadRequest,
				msg:  fmt.Sprintf("Too many tracks (maximum is %d)", lerr.Max),
				err:  err,
			}
		} else if err != nil {
			return nil, "", &httpError{http.StatusBadRequest, fmt.Sprint("Bad input: ", err), err}
		}
		return &album.Import{Tracks: tracks}, "", nil

	case "bandcamp":
		u, err := bandcamp.CleanURL(req.FormValue("url"))
		if err != nil {
			return nil, "", &httpError{
				code: http.StatusBadRequest,
				msg:  fmt.Sprintf("Unsupported URL (want %v)", bandcamp.ExampleURL),
				err:  fmt.Errorf("%q: %v", req.FormValue("url"), err),
			}
		}
		im, err := bandcamp.Fetch(ctx, u)
		if err != nil {
			return nil, "", &httpError{
				code: http.StatusInternalServerError,
				msg:  fmt.Sprint("Failed getting tracks: ", err),
				err:  err,
			}
		}
		return im, "", nil

	case "musicbrainz":
		mbid := strings.TrimSpace(req.FormValue("mbid"))
		if mbid == "" {
			title, artist := req.FormValue("album"), req.FormValue("artist")
			if strings.TrimSpace(title) == "" && strings.TrimSpace(artist) == "" {
				return nil, "", &httpError{
					code: http.StatusBadRequest,
					msg:  "Please provide an MBID, album name, or artist name",
					err:  errors.New("no mbid, album, or artist"),
				}
			}
			var err error
			if mbid, err = srv.db.FindRelease(ctx, title, artist); errors.Is(err, mbdb.ErrNoMatch) {
				return nil, "", &httpError{http.StatusNotFound, "No matching release found", err}
			} else if err != nil {
				return nil, "", &httpError{http.StatusInternalServerError, fmt.Sprint("Search failed: ", err), err}
			}
		} else if !mbdb.IsMBID(mbid) {
			return nil, "", httpErrorf(http.StatusBadRequest, "bad mbid %q", mbid)
		}
		im, err := srv.db.GetRelease(ctx, mbid)
		if err != nil {
			return nil, "", &httpError{
				code: http.StatusInternalServerError,
				msg:  fmt.Sprint("Failed getting tracks: ", err),
				err:  err,
			}
		}
		return im, "", nil

	case "netease":
		id, err := netease.AlbumID(req.FormValue("url"))
		if err != nil {
			return nil, "", &httpError{
				code: http.StatusBadRequest,
				msg:  fmt.Sprintf("Invalid NetEase URL (want %v)", netease.ExampleURL),
				err:  err,
			}
		}
		im, err := netease.Fetch(ctx, id)
		if errors.Is(err, netease.ErrLoginRequired) {
			return nil, "", &httpError{
				code: http.StatusBadGateway,
				msg:  "NetEase requires login; try MusicBrainz instead",
				err:  err,
			}
		} else if err != nil {
			return nil, "", &httpError{
				code: http.StatusInternalServerError,
				msg:  fmt.Sprint("Failed getting tracks: ", err),
				err:  err,
			}
		}
		return im, "", nil

	default:
		return nil, "", httpErrorf(http.StatusBadRequest, "bad source %q", src)
	}
}

// parseForm parses req's URL-encoded or multipart form, reading at most maxBytes of its body.
// ParseMultipartForm doesn't report ParseForm's errors for non-multipart bodies,
// so ParseForm is called first.
func parseForm(w http.ResponseWriter, req *http.Request, maxBytes int64) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
	err := req.ParseForm()
	if err == nil && isMultipart(req) {
		err = req.ParseMultipartForm(maxBytes)
	}
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &httpError{http.StatusRequestEntityTooLarge, "Input is too long", err}
	}
	return &httpError{http.StatusBadRequest, "", err}
}

// isMultipart returns true if req has a multipart/form-data body.
func isMultipart(req *http.Request) bool {
	mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// formBool returns true if v is a checked form value.
func formBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// clientAddr returns the client's address (which may be either "ip" or "ip:port").
func clientAddr(req *http.Request) string {
	// When running under App Engine, connections come from 127.0.0.1,
	// so get the client IP from the X-Forwarded-For header.
	if os.Getenv("GAE_ENV") != "" {
		if hdr := req.Header.Get("X-Forwarded-For"); hdr != "" {
			// X-Forwarded-For: <client>, <proxy1>, <proxy2>
			return strings.SplitN(hdr, ", ", 2)[0]
		}
	}
	return req.RemoteAddr
}
