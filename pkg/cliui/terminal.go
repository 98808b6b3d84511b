package cliui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalSize returns the size of the terminal behind w, or the fallback
// values when w is not a terminal.
func TerminalSize(w io.Writer, fallbackWidth, fallbackHeight int) (int, int) {
	f, ok := w.(*os.File)
	if !ok {
		return fallbackWidth, fallbackHeight
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return fallbackWidth, fallbackHeight
	}

	return width, height
}

// ReadSecret prompts on w and reads a line from the terminal in without
// echoing it.
func ReadSecret(in *os.File, w io.Writer, prompt string) (string, error) {
	_, _ = io.WriteString(w, prompt)
	b, err := term.ReadPassword(int(in.Fd()))
	_, _ = io.WriteString(w, "\n")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
