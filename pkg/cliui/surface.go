package cliui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

// SurfaceConfig configures the terminal surfaces.
type SurfaceConfig struct {
	// Out receives the report.
	Out io.Writer

	// Status receives thinking text, usage and errors on the append-only
	// surface. Defaults to Out.
	Status io.Writer

	Markdown     *Markdown
	ShowThinking bool

	// Width and Height bound the live region. Zero values use 80x24.
	Width  int
	Height int
}

// NewSurface returns a LiveSurface when cfg.Out is a terminal and a
// PlainSurface otherwise.
func NewSurface(cfg SurfaceConfig) stream.Surface {
	if IsTerminal(cfg.Out) {
		return NewLiveSurface(cfg)
	}
	return NewPlainSurface(cfg)
}

// LiveSurface redraws the request in place on a terminal. While streaming,
// only the tail of the view that fits on screen is kept live; the final
// render prints the complete view below any earlier output.
type LiveSurface struct {
	cfg   SurfaceConfig
	view  View
	drawn int
	done  bool
}

var _ stream.Surface = (*LiveSurface)(nil)

func NewLiveSurface(cfg SurfaceConfig) *LiveSurface {
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	return &LiveSurface{
		cfg:  cfg,
		view: View{ShowThinking: cfg.ShowThinking},
	}
}

func (s *LiveSurface) RenderThink(text string, streaming bool) {
	if s.done {
		return
	}
	s.view.Think = text
	s.view.ThinkStreaming = streaming
	s.redraw()
}

func (s *LiveSurface) RenderAnswer(text string, streaming bool) {
	if s.done {
		return
	}
	s.view.Answer = text
	s.view.AnswerStreaming = streaming
	s.redraw()
}

func (s *LiveSurface) RenderFinal(snap stream.Snapshot) {
	if s.done {
		return
	}
	s.done = true
	s.view.Think = snap.Think
	s.view.Answer = snap.Answer
	s.view.ThinkStreaming = false
	s.view.AnswerStreaming = false

	s.clear()
	_, _ = io.WriteString(s.cfg.Out, RenderView(s.view, s.cfg.Markdown))
}

func (s *LiveSurface) RenderError(message string) {
	if s.done {
		return
	}
	s.done = true

	s.clear()
	_, _ = io.WriteString(s.cfg.Out, FailMark+" "+ErrorStyle.Render(message)+"\n")
}

func (s *LiveSurface) RenderUsage(usage session.Snapshot) {
	if s.done {
		return
	}
	s.view.Usage = &usage
	if s.drawn > 0 {
		s.redraw()
	}
}

func (s *LiveSurface) redraw() {
	lines := s.fit(RenderView(s.view, s.cfg.Markdown))

	s.clear()
	if len(lines) == 0 {
		return
	}
	_, _ = io.WriteString(s.cfg.Out, strings.Join(lines, "\n")+"\n")
	s.drawn = len(lines)
}

// fit wraps the view to the terminal width and keeps the lines that fit
// above the prompt row.
func (s *LiveSurface) fit(view string) []string {
	view = strings.TrimRight(view, "\n")
	if view == "" {
		return nil
	}

	lines := strings.Split(ansi.Hardwrap(view, s.cfg.Width-1, true), "\n")
	if limit := s.cfg.Height - 1; len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

// clear erases the live region drawn by the previous redraw.
func (s *LiveSurface) clear() {
	if s.drawn == 0 {
		return
	}
	_, _ = io.WriteString(s.cfg.Out, "\r"+ansi.CursorUp(s.drawn)+ansi.EraseScreenBelow)
	s.drawn = 0
}

// PlainSurface writes append-only output for pipes and files. The answer is
// written as raw Markdown as it grows; thinking goes to Status only when
// ShowThinking is set.
type PlainSurface struct {
	cfg         SurfaceConfig
	think       string
	answer      string
	thinkOpen   bool
	thinkClosed bool
	done        bool
	usage       *session.Snapshot
}

var _ stream.Surface = (*PlainSurface)(nil)

func NewPlainSurface(cfg SurfaceConfig) *PlainSurface {
	if cfg.Status == nil {
		cfg.Status = cfg.Out
	}
	return &PlainSurface{cfg: cfg}
}

func (s *PlainSurface) RenderThink(text string, _ bool) {
	if s.done || !s.cfg.ShowThinking || s.thinkClosed {
		return
	}
	if !s.thinkOpen {
		s.thinkOpen = true
		_, _ = io.WriteString(s.cfg.Status, "思考过程:\n")
	}
	s.think = appendDelta(s.cfg.Status, s.think, text)
}

func (s *PlainSurface) RenderAnswer(text string, _ bool) {
	if s.done {
		return
	}
	s.endThinking()
	s.answer = appendDelta(s.cfg.Out, s.answer, text)
}

func (s *PlainSurface) RenderFinal(snap stream.Snapshot) {
	if s.done {
		return
	}
	s.RenderThink(snap.Think, false)
	s.RenderAnswer(snap.Answer, false)
	s.done = true

	if s.answer != "" && !strings.HasSuffix(s.answer, "\n") {
		_, _ = io.WriteString(s.cfg.Out, "\n")
	}
	// An unclosed think block leaves everything in thinking.
	if s.answer == "" && !s.cfg.ShowThinking && snap.Think != "" {
		_, _ = fmt.Fprintf(s.cfg.Status, "▸ 思考过程 (已折叠, %d 字), 回答为空\n", utf8.RuneCountInString(snap.Think))
	}
	if s.usage != nil {
		_, _ = io.WriteString(s.cfg.Status, s.usage.String()+"\n")
	}
}

func (s *PlainSurface) RenderError(message string) {
	if s.done {
		return
	}
	s.done = true
	s.endThinking()
	_, _ = io.WriteString(s.cfg.Status, "错误: "+message+"\n")
}

func (s *PlainSurface) RenderUsage(usage session.Snapshot) {
	s.usage = &usage
}

func (s *PlainSurface) endThinking() {
	if !s.thinkOpen || s.thinkClosed {
		return
	}
	s.thinkClosed = true
	if s.think != "" && !strings.HasSuffix(s.think, "\n") {
		_, _ = io.WriteString(s.cfg.Status, "\n")
	}
	_, _ = io.WriteString(s.cfg.Status, "\n")
}

// appendDelta writes the part of next that extends written and returns
// next. Both partitions only ever grow, so written is always a prefix.
func appendDelta(w io.Writer, written, next string) string {
	delta, ok := strings.CutPrefix(next, written)
	if !ok {
		delta = next
	}
	if delta != "" {
		_, _ = io.WriteString(w, delta)
	}
	return next
}
