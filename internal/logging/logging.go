// Package logging configures the zerolog logger. stdout belongs to the host
// protocol, so logs go to a file or stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Options selects the log destination and level.
type Options struct {
	Level  string
	Dir    string // log file directory, used unless Stderr is set
	File   string
	Stderr bool
}

// Setup returns a logger for opts and a closer for the underlying file. If
// the log file can't be opened the logger falls back to stderr.
func Setup(opts Options) (zerolog.Logger, io.Closer) {
	level := ParseLevel(opts.Level)

	if opts.Stderr {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).With().Timestamp().Logger()
		return withCaller(logger, level), nopCloser{}
	}

	f, err := os.OpenFile(filepath.Join(opts.Dir, opts.File), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		logger.Warn().Err(err).Msg("Failed to open log file, logging to stderr")
		return withCaller(logger, level), nopCloser{}
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
	return withCaller(logger, level), f
}

func withCaller(logger zerolog.Logger, level zerolog.Level) zerolog.Logger {
	if level <= zerolog.DebugLevel {
		return logger.With().Caller().Logger()
	}
	return logger
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
