// Package logging builds the zerolog logger handed to every filesum component.
// Nothing in filesum logs through a package-level logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/filesum/fsum/config"
	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// configureZerolog sets zerolog's only process-wide hooks: how stacks recorded by
// pkg/errors are marshalled and how timestamps are formatted. Every New call applies them.
func configureZerolog() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New opens the configured log file in append mode and returns a logger writing to it.
// With Debug set, entries are also written to stderr through a console writer at debug
// level. The returned closer releases the log file.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer, error) {
	return newWithConsole(cfg, os.Stderr)
}

func newWithConsole(cfg config.LoggingConfig, console io.Writer) (zerolog.Logger, io.Closer, error) {
	configureZerolog()

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, common.ConfigError("parse log level", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if dir := filepath.Dir(cfg.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, common.ConfigError("create log directory", fmt.Errorf("could not create log directory %s: %w", dir, err))
		}
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, common.ConfigError("open log file", err)
	}

	var writer io.Writer = levelWriter{Writer: file, min: level}
	if cfg.Debug {
		writer = zerolog.MultiLevelWriter(
			levelWriter{Writer: file, min: level},
			levelWriter{Writer: zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05"}, min: zerolog.DebugLevel},
		)
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, file, nil
}

// levelWriter drops entries below min so each sink keeps its own threshold
type levelWriter struct {
	io.Writer
	min zerolog.Level
}

func (lw levelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < lw.min {
		return len(p), nil
	}
	return lw.Writer.Write(p)
}

// Nop returns a disabled logger for tests and library callers that do not log.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Component returns logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
