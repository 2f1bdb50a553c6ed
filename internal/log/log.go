// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package log configures the process-wide structured logger.
// Diagnostics go through slog to stderr; user-facing progress lines are
// written directly by the commands.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Options configures the logger.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// JSONFormat switches stderr output to JSON.
	JSONFormat bool
	// Stderr is the destination (defaults to os.Stderr).
	Stderr io.Writer
}

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// Init replaces the global logger according to opts and installs it as the
// slog default.
func Init(opts Options) {
	w := opts.Stderr
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if opts.JSONFormat {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// Debug logs diagnostics shown only with --verbose.
func Debug(msg string, args ...any) { logger.Debug(msg, args...) }

// Info logs progress such as downloads.
func Info(msg string, args ...any) { logger.Info(msg, args...) }

// Warn logs recoverable problems, for example a missing outline.
func Warn(msg string, args ...any) { logger.Warn(msg, args...) }

// Error logs failures that cannot be returned to a caller.
func Error(msg string, args ...any) { logger.Error(msg, args...) }
