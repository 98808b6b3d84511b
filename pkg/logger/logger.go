// Package logger builds the *slog.Logger used across advisor: colorized
// output for humans on the terminal, JSON for log files.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	prefix string
	w      io.Writer
}

// New creates a logger. Without options it writes text records at Info
// level to os.Stderr, leaving stdout to the report output.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level: slog.LevelInfo,
		w:     os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.pretty {
		level := charmlog.InfoLevel
		if c.level <= slog.LevelDebug {
			level = charmlog.DebugLevel
		}
		return slog.New(charmlog.NewWithOptions(c.w, charmlog.Options{
			Level:  level,
			Prefix: c.prefix,
		}))
	}

	handlerOpts := &slog.HandlerOptions{Level: c.level}
	if c.json {
		return slog.New(slog.NewJSONHandler(c.w, handlerOpts))
	}
	l := slog.New(slog.NewTextHandler(c.w, handlerOpts))
	if c.prefix != "" {
		l = l.With("component", c.prefix)
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
