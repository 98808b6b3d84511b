package chatcmder

import (
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

type thinkMsg struct {
	text      string
	streaming bool
}

type answerMsg struct {
	text      string
	streaming bool
}

type finalMsg struct {
	snap stream.Snapshot
}

type failMsg struct {
	message string
}

type usageMsg struct {
	usage session.Snapshot
}

// doneMsg ends a request. err is nil on success.
type doneMsg struct {
	err error
}

// teaSurface forwards renders to the TUI event loop as messages.
type teaSurface struct {
	events chan<- any
}

var _ stream.Surface = teaSurface{}

func (s teaSurface) RenderThink(text string, streaming bool) {
	s.events <- thinkMsg{text: text, streaming: streaming}
}

func (s teaSurface) RenderAnswer(text string, streaming bool) {
	s.events <- answerMsg{text: text, streaming: streaming}
}

func (s teaSurface) RenderFinal(snap stream.Snapshot) {
	s.events <- finalMsg{snap: snap}
}

func (s teaSurface) RenderError(message string) {
	s.events <- failMsg{message: message}
}

func (s teaSurface) RenderUsage(usage session.Snapshot) {
	s.events <- usageMsg{usage: usage}
}
