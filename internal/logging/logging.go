// SPDX-License-Identifier: MPL-2.0

// Package logging builds the diagnostic logger shared by every bootstrap stage.
//
// Human-readable lines go to stderr through charmbracelet/log. When a log file
// is configured, the same records are also written there as JSON.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

// Prefix is prepended to every terminal diagnostic line.
const Prefix = "pyboot"

// Options configures New.
type Options struct {
	// Writer receives terminal diagnostics. Defaults to os.Stderr.
	Writer io.Writer
	// Verbose lowers the level to debug.
	Verbose bool
	// LogFile, when set, receives a JSON copy of every record.
	LogFile string
}

// Logger bundles the slog front-end with the resources it owns.
type Logger struct {
	*slog.Logger

	file *os.File
}

// New creates a Logger according to opts.
func New(opts Options) (*Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	console := log.NewWithOptions(w, log.Options{
		Prefix: Prefix,
		Level:  level,
	})

	if opts.LogFile == "" {
		return &Logger{Logger: slog.New(console)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// The file always records debug detail regardless of terminal verbosity.
	jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})

	return &Logger{
		Logger: slog.New(slogmulti.Fanout(console, jsonHandler)),
		file:   f,
	}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
