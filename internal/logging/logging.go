// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger shared by the CLI commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// fileTimeFormat names per-run log files, e.g. research_20260319_142501.log.
const fileTimeFormat = "20060102_150405"

// Config contains logger configuration options.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is console or json.
	Format string

	// Dir receives a JSON log file per run; empty disables file output.
	Dir string

	// Out is the terminal destination; nil means stderr.
	Out io.Writer
}

// New creates a logger writing to cfg.Out and, when cfg.Dir is set, to a
// timestamped file in that directory. The returned closer releases the file
// and is never nil.
func New(cfg Config, now time.Time) (zerolog.Logger, io.Closer, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("creating log directory: %w", err)
		}
		path := filepath.Join(cfg.Dir, "research_"+now.Format(fileTimeFormat)+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("opening log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	log := zerolog.New(out).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
	return log, closer, nil
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
