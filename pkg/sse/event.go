// Package sse decodes the event stream returned by the advisor backend.
//
// The backend frames its response as "event: <name>\ndata: <payload>\n\n".
// Frames are only emitted once their terminating blank line has been
// buffered; partial frames are carried across reads. The decoder works on
// raw bytes, and since the "\n\n" delimiter is pure ASCII it can never fall
// inside a multi-byte UTF-8 sequence, so characters split across network
// chunks are reassembled before any text is produced.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
package sse

// DefaultEvent is the event name assumed for frames without an "event:" line.
const DefaultEvent = "message"

// Frame is a single decoded event, delimited by a blank line in the byte stream.
type Frame struct {
	// Event is the value of the "event:" line, or empty when absent.
	Event string

	// Data is everything after the "data:" prefix. Multiple data lines are
	// joined with "\n". Internal colons are preserved.
	Data string

	// HasData reports whether the frame carried at least one "data:" line.
	// The "end" frame of the advisor protocol usually carries none.
	HasData bool

	// ID is the last "id:" value, if present.
	ID string
}

// Name returns the event name, falling back to DefaultEvent.
func (f Frame) Name() string {
	if f.Event == "" {
		return DefaultEvent
	}
	return f.Event
}
