package config

import (
	"fmt"
	"slices"
	"strconv"
)

// Config represents the persistent advisor configuration stored as
// config.toml in the .advisor/ directory.
type Config struct {
	Version int          `toml:"version"`
	Server  ServerConfig `toml:"server"`
	Auth    AuthConfig   `toml:"auth"`
	Render  RenderConfig `toml:"render"`
	Export  ExportConfig `toml:"export"`
}

// ServerConfig holds the address of the advisor backend.
type ServerConfig struct {
	URL string `toml:"url,omitempty"`
}

// AuthConfig holds the invitation code remembered by "advisor verify".
type AuthConfig struct {
	InvitationCode string `toml:"invitation_code,omitempty"`
}

// RenderConfig controls terminal output of streamed reports.
type RenderConfig struct {
	// DebounceMS is the minimum interval between answer re-renders.
	DebounceMS int `toml:"debounce_ms,omitempty"`

	// WordWrap is the Markdown wrap width. Zero uses the terminal width.
	WordWrap int `toml:"word_wrap,omitempty"`

	// Style is a glamour style name: "auto", "dark", "light" or "notty".
	Style string `toml:"style,omitempty"`

	// ShowThinking keeps the thinking text expanded in the final output.
	ShowThinking bool `toml:"show_thinking,omitempty"`
}

// ExportConfig controls where finished reports are written.
type ExportConfig struct {
	// Dir is the export directory. Empty uses .advisor/reports.
	Dir string `toml:"dir,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.url": {
		get: func(c *Config) string { return c.Server.URL },
		set: func(c *Config, v string) error { c.Server.URL = v; return nil },
	},
	"auth.invitation_code": {
		get: func(c *Config) string { return c.Auth.InvitationCode },
		set: func(c *Config, v string) error { c.Auth.InvitationCode = v; return nil },
	},
	"render.debounce_ms": {
		get: func(c *Config) string { return strconv.Itoa(c.Render.DebounceMS) },
		set: func(c *Config, v string) error {
			n, err := parseNonNegative("render.debounce_ms", v)
			if err != nil {
				return err
			}
			c.Render.DebounceMS = n
			return nil
		},
	},
	"render.word_wrap": {
		get: func(c *Config) string { return strconv.Itoa(c.Render.WordWrap) },
		set: func(c *Config, v string) error {
			n, err := parseNonNegative("render.word_wrap", v)
			if err != nil {
				return err
			}
			c.Render.WordWrap = n
			return nil
		},
	},
	"render.style": {
		get: func(c *Config) string { return c.Render.Style },
		set: func(c *Config, v string) error {
			if !ValidStyle(v) {
				return fmt.Errorf("invalid value for render.style: %q (available: %v)", v, Styles)
			}
			c.Render.Style = v
			return nil
		},
	},
	"render.show_thinking": {
		get: func(c *Config) string { return strconv.FormatBool(c.Render.ShowThinking) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for render.show_thinking: %w", err)
			}
			c.Render.ShowThinking = b
			return nil
		},
	},
	"export.dir": {
		get: func(c *Config) string { return c.Export.Dir },
		set: func(c *Config, v string) error { c.Export.Dir = v; return nil },
	},
}

// Styles lists the accepted render.style values.
var Styles = []string{"auto", "dark", "light", "notty"}

// ValidStyle reports whether s is an accepted render.style value.
func ValidStyle(s string) bool {
	return slices.Contains(Styles, s)
}

func parseNonNegative(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid value for %s: must not be negative", key)
	}
	return n, nil
}
