package config

const (
	defaultServerURL  = "http://localhost:5000"
	defaultDebounceMS = 150
	defaultWordWrap   = 80
	defaultStyle      = "auto"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			URL: defaultServerURL,
		},
		Render: RenderConfig{
			DebounceMS: defaultDebounceMS,
			WordWrap:   defaultWordWrap,
			Style:      defaultStyle,
		},
	}
}
