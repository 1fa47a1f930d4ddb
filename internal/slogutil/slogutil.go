package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Silent is a level above every standard level.
const Silent = slog.Level(100)

// Options selects how Setup builds a logger.
type Options struct {
	Level  slog.Level
	Format string // "human" or "json"
	File   string // optional extra destination, always written at debug
}

// NewLogger creates a logger writing human-readable records to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger creates a logger that discards all output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(NewHandler(io.Discard, &slog.HandlerOptions{Level: Silent}))
}

// Setup builds the process logger. Records go to w in the requested format;
// when opts.File is set they are also appended to that file. The returned
// close function releases the file.
func Setup(w io.Writer, opts Options) (*slog.Logger, func() error, error) {
	var primary slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "human":
		primary = NewHandler(w, &slog.HandlerOptions{Level: opts.Level})
	case "json":
		primary = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.File == "" {
		return slog.New(primary), func() error { return nil }, nil
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	file := NewHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewTeeHandler(primary, file)), f.Close, nil
}

// LevelFromString converts a level name (debug, info, warn, error, silent)
// to a slog.Level. Unrecognized names give info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "silent", "off":
		return Silent
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity maps -v/-q flags onto a level. With no flags the
// configured base level applies; each -v lowers it one step down to debug.
func LevelFromVerbosity(base slog.Level, verbosity int, quiet bool) slog.Level {
	if quiet {
		return Silent
	}
	level := base
	for i := 0; i < verbosity && level > slog.LevelDebug; i++ {
		switch {
		case level > slog.LevelError:
			level = slog.LevelError
		case level > slog.LevelWarn:
			level = slog.LevelWarn
		case level > slog.LevelInfo:
			level = slog.LevelInfo
		default:
			level = slog.LevelDebug
		}
	}
	return level
}

// TeeHandler writes records to every handler enabled for their level.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TeeHandler{handlers: t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })}
}

func (t *TeeHandler) WithGroup(name string) slog.Handler {
	return &TeeHandler{handlers: t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })}
}

func (t *TeeHandler) each(fn func(slog.Handler) slog.Handler) []slog.Handler {
	out := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		out[i] = fn(h)
	}
	return out
}
