// Package logging builds the leveled console logger shared by all commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = log.InfoLevel

// Options holds configuration for the logger.
type Options struct {
	Level           string
	ReportTimestamp bool
	Prefix          string
}

// New creates a logger writing to w. An unknown level falls back to info and
// is reported through the returned logger.
func New(w io.Writer, opts Options) *log.Logger {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "tasklist"
	}

	level := DefaultLevel
	var levelErr error
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
		if err != nil {
			levelErr = err
		} else {
			level = parsed
		}
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          prefix,
	})
	if levelErr != nil {
		logger.Warn("unknown log level, using info", "level", opts.Level)
	}
	return logger
}

// OpenFile opens (appending) a log file under dir, creating dir if needed.
// The terminal UI logs here so output does not tear the screen.
func OpenFile(dir, name string) (*os.File, error) {
	if dir == "" {
		return nil, fmt.Errorf("log dir is empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
