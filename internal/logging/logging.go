// Package logging builds the zerolog logger shared by all components and routes the
// proving library's output through it.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"battleship-p2p/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to console (human form) and/or a rotated JSON file.
// The returned closer flushes the file writer.
func New(opts config.LogOptions, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	gnarkLevel, err := zerolog.ParseLevel(opts.GnarkLevel)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}
	if opts.ToConsole && console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly})
	}
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o700); err != nil {
			return zerolog.Nop(), nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize, // megabytes
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge, // days
			Compress:   opts.Compress,
		}
		writers = append(writers, lj)
		closer = lj
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	gnarklogger.Set(log.Level(max(level, gnarkLevel)).With().Str("component", "gnark").Logger())
	return log, closer, nil
}

// Silence discards the proving library's own output.
func Silence() {
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
}
