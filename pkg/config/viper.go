package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/advisor/pkg/dotdir"
)

// EnvPrefix is the prefix of environment variables read by InitViper.
const EnvPrefix = "ADVISOR"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ADVISOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ADVISOR_SERVER_URL, ADVISOR_AUTH_INVITATION_CODE, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper builds a Config from the resolved values in v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			URL: v.GetString("server.url"),
		},
		Auth: AuthConfig{
			InvitationCode: v.GetString("auth.invitation_code"),
		},
		Render: RenderConfig{
			DebounceMS:   v.GetInt("render.debounce_ms"),
			WordWrap:     v.GetInt("render.word_wrap"),
			Style:        v.GetString("render.style"),
			ShowThinking: v.GetBool("render.show_thinking"),
		},
		Export: ExportConfig{
			Dir: v.GetString("export.dir"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.url", d.Server.URL)

	v.SetDefault("auth.invitation_code", d.Auth.InvitationCode)

	v.SetDefault("render.debounce_ms", d.Render.DebounceMS)
	v.SetDefault("render.word_wrap", d.Render.WordWrap)
	v.SetDefault("render.style", d.Render.Style)
	v.SetDefault("render.show_thinking", d.Render.ShowThinking)

	v.SetDefault("export.dir", d.Export.Dir)
}
