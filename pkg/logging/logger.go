// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for OracleScan.
//
// Built on the standard library slog package, writing to stderr so the
// query result on stdout stays clean for piping. Text format by default
// for humans, JSON on request for machines.
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("node connection established", "endpoint", endpoint)
//	logger.Warn("telemetry disabled", "error", err)
//
// # Security Considerations
//
// Nothing here redacts. Callers must not log credentials; log presence,
// not value:
//
//	logger.Info("collector auth", "credential_present", cred != "")
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational events.
	LevelInfo

	// LevelWarn is for degraded-but-continuing situations, notably every
	// telemetry failure in this program.
	LevelWarn

	// LevelError is for failed operations.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel bridges Level to the standard library.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// Level. Unknown names fall back to Info with an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Config configures the Logger. The zero value writes Info+ messages to
// stderr as text.
type Config struct {
	// Level is the minimum severity that gets written.
	Level Level

	// Service is attached to every entry as the "service" attribute.
	// Empty means no attribute.
	Service string

	// JSON switches output to one JSON object per line.
	JSON bool

	// Quiet discards everything. Tests use it to keep output clean.
	Quiet bool
}

// Logger is a thin structured logger over slog.
//
// # Thread Safety
//
// Safe for concurrent use; slog handlers are thread-safe and Logger has
// no mutable state.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger from config.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	var handler slog.Handler
	switch {
	case config.Quiet:
		handler = slog.DiscardHandler
	case config.JSON:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}
	return &Logger{slog: slog.New(handler)}
}

// Default returns an Info-level stderr text logger tagged with the
// oraclescan service name.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "oraclescan"})
}

// Debug logs at Debug level with key-value attributes.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at Info level with key-value attributes.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at Warn level with key-value attributes.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at Error level with key-value attributes.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a child logger carrying additional attributes.
//
//	runLogger := logger.With("invocation_id", id)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}
