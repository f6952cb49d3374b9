// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package config loads settings for the tracklist commands from TOML files.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config contains settings for the tracklist and tracklistd commands.
type Config struct {
	Parse       ParseConfig       `toml:"parse"`
	Server      ServerConfig      `toml:"server"`
	MusicBrainz MusicBrainzConfig `toml:"musicbrainz"`
}

// ParseConfig configures track list parsing.
type ParseConfig struct {
	FoldWidth bool `toml:"fold_width"`
	MaxTracks int  `toml:"max_tracks"`
}

// ServerConfig configures tracklistd.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	MaxReqBytes    int64    `toml:"max_req_bytes"`
	RequestDelay   Duration `toml:"request_delay"`
	RateMapSize    int      `toml:"rate_map_size"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// MusicBrainzConfig configures access to the MusicBrainz API.
type MusicBrainzConfig struct {
	ServerURL string  `toml:"server_url"`
	MaxQPS    float64 `toml:"max_qps"`
}

// Duration is a time.Duration that's written in TOML files as a string like "1.5s".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(b))
	return err
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the default configuration.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed parsing embedded config: %v", err))
	}
	return &cfg
}

// Load reads the TOML file at path on top of the default configuration.
// Settings missing from the file keep their default values.
// If path is empty, the default configuration is returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed parsing %v: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("unknown setting %q in %v", undec[0].String(), path)
	}
	return cfg, cfg.check()
}

// check returns an error if cfg contains invalid values.
func (cfg *Config) check() error {
	switch {
	case cfg.Parse.MaxTracks < 0:
		return fmt.Errorf("negative parse.max_tracks %d", cfg.Parse.MaxTracks)
	case cfg.Server.MaxReqBytes <= 0:
		return fmt.Errorf("non-positive server.max_req_bytes %d", cfg.Server.MaxReqBytes)
	case cfg.Server.RequestDelay.Duration < 0:
		return fmt.Errorf("negative server.request_delay %v", cfg.Server.RequestDelay)
	case cfg.Server.RateMapSize <= 0:
		return fmt.Errorf("non-positive server.rate_map_size %d", cfg.Server.RateMapSize)
	case cfg.Server.RequestTimeout.Duration <= 0:
		return fmt.Errorf("non-positive server.request_timeout %v", cfg.Server.RequestTimeout)
	case cfg.MusicBrainz.MaxQPS <= 0:
		return fmt.Errorf("non-positive musicbrainz.max_qps %v", cfg.MusicBrainz.MaxQPS)
	}
	return nil
}

// WriteExample writes the example configuration to path.
// An error is returned if the file already exists.
func WriteExample(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(exampleConf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
