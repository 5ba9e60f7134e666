// Package log is a small leveled logger built on log/slog. The core never
// sets up handlers, files, or rotation (that belongs to the binary embedding
// this library) but every package here logs through a *Logger rather than
// printing directly.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps an *slog.Logger with the subset of levels the session engine
// emits, and a Sub helper for attaching a component name.
type Logger struct {
	s *slog.Logger
}

// Discard is a Logger that drops everything; it is the zero-friendly default
// so that constructing a Session without supplying a Logger never panics.
var Discard = &Logger{s: slog.New(slog.NewTextHandler(io.Discard, nil))}

// New builds a Logger writing text-formatted records to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{s: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Sub returns a child Logger with component=name attached to every record.
func (l *Logger) Sub(name string) *Logger {
	if l == nil {
		return Discard
	}
	return &Logger{s: l.s.With("component", name)}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l == nil || l.s == nil {
		return
	}
	l.s.Log(context.Background(), level, msg, args...)
}
