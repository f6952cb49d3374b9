// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package render generates HTML pages listing parsed tracks.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
	"github.com/tunelog/tracklist/album"
)

// placeholder is displayed in the page's empty textarea.
const placeholder = "1. Intro 1:23\n2. First Song 4:56\n3. Second Song 5:12\n4. Outro 2:34"

// OpenFile writes an HTML page containing tracks to a temporary file
// and opens it in a browser.
func OpenFile(tracks []album.Track, opts ...Option) error {
	tf, err := os.CreateTemp("",
		fmt.Sprintf("tracklist-%s-*.html", time.Now().Format("20060102-150405")))
	if err != nil {
		return err
	}
	log.Info("Writing page", "path", tf.Name())
	if err := Write(tf, tracks, opts...); err != nil {
		tf.Close()
		return err
	}
	if err := tf.Close(); err != nil {
		return err
	}
	return browser.OpenFile(tf.Name())
}

// OpenHTTP starts a local HTTP server at addr and opens an HTML page containing
// tracks in a browser. The server exits after the page has been served once.
// This is useful when the browser doesn't have direct filesystem access
// (e.g. the command is running in a VM).
func OpenHTTP(ctx context.Context, addr string, tracks []album.Track, opts ...Option) error {
	var b bytes.Buffer
	if err := Write(&b, tracks, opts...); err != nil {
		return err
	}

	// Bind to the port first so we can get the real address if the port wasn't specified.
	ls, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ls.Close()
	listenURL := fmt.Sprintf("http://%s/", ls.Addr().String())
	log.Info("Listening", "url", listenURL)

	done := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(b.Bytes())
		select {
		case <-done:
		default:
			close(done)
		}
	})

	srv := http.Server{Handler: mux}
	start := make(chan error, 1)
	go func() { start <- srv.Serve(ls) }()
	if err := browser.OpenURL(listenURL); err != nil {
		srv.Close()
		return err
	}
	select {
	case err := <-start:
		// Serve only returns early if something went wrong.
		return err
	case <-done:
		log.Info("Shutting down after serving page")
		return srv.Shutdown(ctx)
	case <-ctx.Done():
		srv.Close()
		return ctx.Err()
	}
}

// Write writes an HTML page containing the supplied tracks to w.
// The page also contains a form for submitting more text to tracklistd.
func Write(w io.Writer, tracks []album.Track, opts ...Option) error {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"inc":    func(i int) int { return i + 1 },
		"length": formatLength,
	}).Parse(pageTmpl)
	if err != nil {
		return err
	}

	var payload string
	if len(tracks) > 0 {
		b, err := json.MarshalIndent(album.SaveTracks(tracks), "", "  ")
		if err != nil {
			return err
		}
		payload = string(b)
	}
	data := struct {
		Title       string
		Artist      string
		Year        int
		Warning     string
		Version     string
		Input       string
		Placeholder string
		Tracks      []album.Track
		Payload     string
	}{
		Warning:     cfg.warning,
		Version:     cfg.version,
		Input:       cfg.input,
		Placeholder: placeholder,
		Tracks:      tracks,
		Payload:     payload,
	}
	if im := cfg.im; im != nil {
		data.Title, data.Artist, data.Year = im.Title, im.Artist, im.ReleaseYear
	}
	return tmpl.Execute(w, data)
}

// formatLength formats tr's length as "M:SS", or returns an empty string if it's unknown.
func formatLength(tr album.Track) string {
	d, ok := tr.Duration()
	if !ok {
		return ""
	}
	sec := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

// Option can be passed to Write to configure the page.
type Option func(*config)

type config struct {
	version string
	warning string
	input   string
	im      *album.Import
}

// Version sets an optional tracklist version to include in the page.
func Version(v string) Option { return func(cfg *config) { cfg.version = v } }

// Warning sets a warning to display above the form.
func Warning(msg string) Option { return func(cfg *config) { cfg.warning = msg } }

// Input sets the text that's initially displayed in the form's textarea.
func Input(s string) Option { return func(cfg *config) { cfg.input = s } }

// Album adds album information (but not tracks) from im to the page.
func Album(im *album.Import) Option { return func(cfg *config) { cfg.im = im } }

//go:embed page.tmpl
var pageTmpl string
