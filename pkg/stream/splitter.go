package stream

import (
	"strings"
)

// Markers delimiting the thinking segment of a generated report.
const (
	OpenMarker  = "<think>"
	CloseMarker = "</think>"
)

// Mode is the partition that incoming tokens are appended to.
type Mode int

const (
	Thinking Mode = iota
	Answering
)

func (m Mode) String() string {
	switch m {
	case Thinking:
		return "thinking"
	case Answering:
		return "answering"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the accumulated state of one request.
type Snapshot struct {
	Mode   Mode
	Think  string
	Answer string

	// Final is set once the stream has ended or failed.
	Final bool

	// Failed is set when the stream ended with an error. Callers show Error
	// instead of the buffers.
	Failed bool
	Error  string
}

// Splitter separates a token stream into thinking and answer text around the
// </think> marker. Markers may straddle token boundaries: at most
// len(marker)-1 bytes that could begin a marker are held back until the next
// token decides them.
//
// A Splitter serves one request and is not safe for concurrent use.
type Splitter struct {
	mode   Mode
	think  strings.Builder
	answer strings.Builder

	// pending holds the tail of the input that may be the start of a marker.
	pending string

	// opening is true until thinking text is committed; while set, a leading
	// <think> marker is stripped.
	opening bool

	frozen bool
	failed bool
	errMsg string
}

// NewSplitter returns a Splitter in Thinking mode with empty buffers.
func NewSplitter() *Splitter {
	return &Splitter{opening: true}
}

// OnToken appends a decoded token. Tokens received after OnEnd or OnError are
// ignored.
func (s *Splitter) OnToken(text string) {
	if s.frozen {
		return
	}

	if s.mode == Answering {
		s.answer.WriteString(text)
		return
	}

	in := s.pending + text
	s.pending = ""

	closeAt := strings.Index(in, CloseMarker)

	if s.opening {
		if openAt := strings.Index(in, OpenMarker); openAt >= 0 && (closeAt < 0 || openAt < closeAt) {
			in = in[openAt+len(OpenMarker):]
			s.opening = false
			closeAt = strings.Index(in, CloseMarker)
		}
	}

	if closeAt >= 0 {
		s.think.WriteString(in[:closeAt])
		s.answer.WriteString(in[closeAt+len(CloseMarker):])
		s.mode = Answering
		s.opening = false
		return
	}

	hold := partialSuffix(in, CloseMarker)
	if s.opening {
		hold = max(hold, partialSuffix(in, OpenMarker))
	}

	commit := in[:len(in)-hold]
	if s.opening && strings.TrimSpace(commit) == "" {
		// Whitespace ahead of a possible opening marker is not committed yet.
		s.pending = in
		return
	}
	s.pending = in[len(in)-hold:]
	if commit != "" {
		s.think.WriteString(commit)
		s.opening = false
	}
}

// OnEnd freezes the state. Held-back bytes are released into the current
// partition. If the closing marker never arrived all text stays in Think.
func (s *Splitter) OnEnd() {
	if s.frozen {
		return
	}
	s.think.WriteString(s.pending)
	s.pending = ""
	s.frozen = true
}

// OnError freezes the state and records the error message. The buffers are
// no longer meaningful to callers.
func (s *Splitter) OnError(message string) {
	if s.frozen {
		return
	}
	s.pending = ""
	s.frozen = true
	s.failed = true
	s.errMsg = message
}

// Mode returns the current partition.
func (s *Splitter) Mode() Mode {
	return s.mode
}

// Snapshot returns a copy of the current state.
func (s *Splitter) Snapshot() Snapshot {
	return Snapshot{
		Mode:   s.mode,
		Think:  s.think.String(),
		Answer: s.answer.String(),
		Final:  s.frozen,
		Failed: s.failed,
		Error:  s.errMsg,
	}
}

// partialSuffix returns the length of the longest proper prefix of marker
// that in ends with.
func partialSuffix(in, marker string) int {
	for n := min(len(in), len(marker)-1); n > 0; n-- {
		if strings.HasSuffix(in, marker[:n]) {
			return n
		}
	}
	return 0
}
