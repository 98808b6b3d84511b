package cliui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/advisor/pkg/session"
)

// Cursor is appended to a partition while it is still streaming.
const Cursor = "▍"

// View is everything shown for one request.
type View struct {
	Think           string
	Answer          string
	ThinkStreaming  bool
	AnswerStreaming bool

	// ShowThinking expands the thinking text once it is complete.
	ShowThinking bool

	Usage *session.Snapshot
}

// RenderView composes v into terminal text. The answer goes through md;
// thinking is shown dimmed while it streams and collapsed afterwards
// unless ShowThinking is set.
func RenderView(v View, md *Markdown) string {
	var b strings.Builder

	if think := strings.TrimSpace(v.Think); think != "" || v.ThinkStreaming {
		switch {
		case v.ThinkStreaming:
			b.WriteString(ThinkStyle.Render("◆ 思考中") + "\n")
			b.WriteString(dimLines(v.Think) + Cursor + "\n")
		case v.ShowThinking:
			b.WriteString(ThinkStyle.Render("▾ 思考过程") + "\n")
			b.WriteString(dimLines(think) + "\n")
		default:
			b.WriteString(DimStyle.Render(fmt.Sprintf("▸ 思考过程 (已折叠, %d 字)", utf8.RuneCountInString(think))) + "\n")
		}
	}

	if v.Answer != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(md.Render(v.Answer))
		if v.AnswerStreaming {
			b.WriteString(Cursor)
		}
		b.WriteString("\n")
	}

	if v.Usage != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(DimStyle.Render(v.Usage.String()) + "\n")
	}

	return b.String()
}

// dimLines styles each line on its own so lipgloss does not pad the block
// to a common width.
func dimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = DimStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
