package testutils

import (
	"sync"

	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

// Render kinds recorded by RecordingSurface.
const (
	RenderThink  = "think"
	RenderAnswer = "answer"
	RenderFinal  = "final"
	RenderError  = "error"
	RenderUsage  = "usage"
)

// Render is one call made on a RecordingSurface.
type Render struct {
	Kind      string
	Text      string
	Streaming bool
	Snapshot  stream.Snapshot
	Usage     session.Snapshot
}

// RecordingSurface is a stream.Surface that records every render.
type RecordingSurface struct {
	mu      sync.Mutex
	renders []Render
}

func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

func (s *RecordingSurface) RenderThink(text string, streaming bool) {
	s.record(Render{Kind: RenderThink, Text: text, Streaming: streaming})
}

func (s *RecordingSurface) RenderAnswer(text string, streaming bool) {
	s.record(Render{Kind: RenderAnswer, Text: text, Streaming: streaming})
}

func (s *RecordingSurface) RenderFinal(snap stream.Snapshot) {
	s.record(Render{Kind: RenderFinal, Text: snap.Answer, Snapshot: snap})
}

func (s *RecordingSurface) RenderError(message string) {
	s.record(Render{Kind: RenderError, Text: message})
}

func (s *RecordingSurface) RenderUsage(usage session.Snapshot) {
	s.record(Render{Kind: RenderUsage, Usage: usage})
}

func (s *RecordingSurface) record(r Render) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, r)
}

// Renders returns a copy of every recorded render in order.
func (s *RecordingSurface) Renders() []Render {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Render(nil), s.renders...)
}

// Of returns the recorded renders of one kind in order.
func (s *RecordingSurface) Of(kind string) []Render {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Render
	for _, r := range s.renders {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of renders of one kind.
func (s *RecordingSurface) Count(kind string) int {
	return len(s.Of(kind))
}
