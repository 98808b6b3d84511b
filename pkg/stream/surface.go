package stream

import "github.com/papercomputeco/advisor/pkg/session"

// Surface displays the state of a request. Calls are serialized by the
// Scheduler; a Surface must not call back into it.
type Surface interface {
	// RenderThink replaces the thinking pane. streaming is false once the
	// closing marker has been seen.
	RenderThink(text string, streaming bool)

	// RenderAnswer replaces the answer pane while the stream is running.
	RenderAnswer(text string, streaming bool)

	// RenderFinal draws the frozen state once, after the stream ended.
	RenderFinal(snap Snapshot)

	// RenderError replaces the request output with an error message.
	RenderError(message string)

	// RenderUsage updates the usage display.
	RenderUsage(usage session.Snapshot)
}

// NopSurface discards all renders.
type NopSurface struct{}

func (NopSurface) RenderThink(string, bool)     {}
func (NopSurface) RenderAnswer(string, bool)    {}
func (NopSurface) RenderFinal(Snapshot)         {}
func (NopSurface) RenderError(string)           {}
func (NopSurface) RenderUsage(session.Snapshot) {}
