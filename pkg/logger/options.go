package logger

import (
	"io"
	"log/slog"
)

// Option adjusts New.
type Option func(*config)

// WithDebug turns on debug records.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty renders records through charmbracelet/log. It wins over
// WithJSON.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON writes one JSON object per record.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithPrefix names the component. Pretty output shows it as the prefix and
// text output as a component attribute.
func WithPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

// WithWriter sends records to w instead of os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.w = w }
}
