package sse

import (
	"errors"
	"fmt"
	"io"
)

const readChunkSize = 4 * 1024

// Reader reads frames from a source io.Reader, optionally writing all raw
// bytes verbatim to a destination io.Writer as they are read.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌────────────────────────────┐
// │  Reader.Next()   │──▶│ tee io.Writer (transcript) │
// └──────────────────┘   └────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
type Reader struct {
	src  io.Reader
	dest io.Writer
	dec  Decoder
	buf  []byte

	pending  []Frame
	done     bool
	residual string
}

// NewReader returns a Reader that decodes frames from src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader that decodes frames from src and writes all
// raw bytes through to dest. A nil dest disables the tee.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	return &Reader{
		src:  src,
		dest: dest,
		buf:  make([]byte, readChunkSize),
	}
}

// Next returns the next frame. It blocks until a complete frame is available
// or the source is exhausted. Next returns nil, nil once the source reaches
// EOF; any unterminated trailing bytes are discarded and reported by
// Residual.
func (r *Reader) Next() (*Frame, error) {
	for len(r.pending) == 0 {
		if r.done {
			return nil, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			if r.dest != nil {
				if _, werr := r.dest.Write(r.buf[:n]); werr != nil {
					return nil, werr
				}
			}
			r.pending = append(r.pending, r.dec.Feed(r.buf[:n])...)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				if held := r.dec.buffered(); held > 0 {
					return nil, fmt.Errorf("%w (%d bytes of a partial frame)", err, held)
				}
				return nil, err
			}
			r.done = true
			r.residual = r.dec.Flush()
		}
	}

	f := r.pending[0]
	r.pending = r.pending[1:]
	return &f, nil
}

// Residual returns the unterminated bytes discarded at EOF.
func (r *Reader) Residual() string {
	return r.residual
}
