package cliui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"

	defaultWordWrap = 80
)

// ResolveStyle maps a configured style to a glamour standard style name.
// "auto" picks from the terminal background, or "notty" when output is
// not a terminal.
func ResolveStyle(style string, tty bool) string {
	if style != "" && style != StyleAuto {
		return style
	}
	if !tty {
		return StyleNoTTY
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

// Markdown renders Markdown text for terminal display.
type Markdown struct {
	renderer *glamour.TermRenderer
	style    string
}

// NewMarkdown builds a renderer for an already resolved style. A width of
// zero or less uses 80 columns.
func NewMarkdown(style string, width int) (*Markdown, error) {
	if width <= 0 {
		width = defaultWordWrap
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}

	return &Markdown{renderer: r, style: style}, nil
}

// Style returns the glamour style name in use.
func (m *Markdown) Style() string {
	return m.style
}

// Render converts content to styled terminal text. On failure the raw
// content is returned so output is never lost.
func (m *Markdown) Render(content string) string {
	if m == nil || m.renderer == nil {
		return content
	}

	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.Trim(rendered, "\n")
}
