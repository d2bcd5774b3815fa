// Package config loads node options from an optional JSON file layered over defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"
)

var ErrInvalidConfig = errors.New("invalid config")

type LogOptions struct {
	Level      string `json:"level"`       // debug, info, warn, error
	ToConsole  bool   `json:"to_console"`  // human-readable output on stderr
	FilePath   string `json:"file_path"`   // JSON log file, rotated; empty disables
	MaxSize    int    `json:"max_size"`    // MB per file
	MaxBackups int    `json:"max_backups"` // rotated files kept
	MaxAge     int    `json:"max_age"`     // days
	Compress   bool   `json:"compress"`
	GnarkLevel string `json:"gnark_level"` // level for the proving library's own logs
}

type Options struct {
	Name      string     `json:"name"`
	KeysDir   string     `json:"keys_dir"`
	Transport string     `json:"transport"` // tcp or ws
	Listen    string     `json:"listen"`    // tcp game listener
	HTTPAddr  string     `json:"http_addr"` // status API and ws endpoint
	MaxFrame  int        `json:"max_frame"` // bytes per wire message
	BoardFile string     `json:"board_file,omitempty"`
	Auto      bool       `json:"auto"` // fire at random instead of prompting
	Log       LogOptions `json:"log"`
}

func Default() *Options {
	return &Options{
		Name:      defaultName,
		KeysDir:   defaultKeysDir,
		Transport: defaultTransport,
		Listen:    defaultListen,
		HTTPAddr:  defaultHTTPAddr,
		MaxFrame:  defaultMaxFrame,
		Log: LogOptions{
			Level:      defaultLogLevel,
			ToConsole:  defaultLogToConsole,
			MaxSize:    defaultLogMaxSize,
			MaxBackups: defaultLogMaxBackups,
			MaxAge:     defaultLogMaxAge,
			Compress:   defaultLogCompress,
			GnarkLevel: defaultGnarkLogLevel,
		},
	}
}

// Load returns defaults overridden by the fields present in the JSON file at path.
// An empty path yields the defaults.
func Load(path string) (*Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(opts); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return opts, opts.Validate()
}

func (o *Options) Validate() error {
	switch {
	case o.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidConfig)
	case o.KeysDir == "":
		return fmt.Errorf("%w: keys_dir is empty", ErrInvalidConfig)
	case o.Transport != TransportTCP && o.Transport != TransportWS:
		return fmt.Errorf("%w: transport %q, want tcp or ws", ErrInvalidConfig, o.Transport)
	case o.Transport == TransportWS && o.HTTPAddr == "":
		return fmt.Errorf("%w: transport ws needs http_addr", ErrInvalidConfig)
	case o.MaxFrame < 4<<10:
		return fmt.Errorf("%w: max_frame %d below 4096", ErrInvalidConfig, o.MaxFrame)
	case o.Log.FilePath != "" && o.Log.MaxSize <= 0:
		return fmt.Errorf("%w: log.max_size must be positive", ErrInvalidConfig)
	}
	for _, lvl := range []string{o.Log.Level, o.Log.GnarkLevel} {
		if _, err := zerolog.ParseLevel(lvl); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
