package sse

import (
	"bytes"
	"strings"
)

var delimiter = []byte("\n\n")

// Decoder turns successive byte chunks into frames. The zero value is ready
// to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte

	// scan is the offset in buf from which the next delimiter search starts.
	// Bytes before it are known not to contain a delimiter.
	scan int
}

// Feed appends chunk to the internal buffer and returns every frame that is
// now complete. Segments that carry no fields (keep-alive blank lines,
// comments) produce no frame.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	start := 0
	for {
		idx := bytes.Index(d.buf[d.scan:], delimiter)
		if idx < 0 {
			break
		}
		end := d.scan + idx
		if f, ok := parseFrame(string(d.buf[start:end])); ok {
			frames = append(frames, f)
		}
		start = end + len(delimiter)
		d.scan = start
	}

	if start > 0 {
		d.buf = append(d.buf[:0], d.buf[start:]...)
		d.scan = 0
	}

	// Resume the next search one byte back so a delimiter straddling two
	// chunks ("\n" | "\n") is still found.
	if n := len(d.buf) - (len(delimiter) - 1); n > d.scan {
		d.scan = n
	}

	return frames
}

// buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) buffered() int {
	return len(d.buf)
}

// Flush discards any unterminated trailing bytes and returns them. On a
// well-formed stream the result is empty.
func (d *Decoder) Flush() string {
	residual := string(d.buf)
	d.buf = d.buf[:0]
	d.scan = 0
	return residual
}

// parseFrame parses the fields of one delimiter-terminated segment.
//
// A line has the form "field:value"; a single space after the colon is
// stripped. Only the first colon separates field from value so payloads such
// as JSON objects survive intact.
func parseFrame(raw string) (Frame, bool) {
	var f Frame
	hasField := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if ok {
			value = strings.TrimPrefix(value, " ")
		} else {
			field = line
		}

		switch field {
		case "event":
			f.Event = value
			hasField = true
		case "data":
			if f.HasData {
				f.Data += "\n"
			}
			f.Data += value
			f.HasData = true
			hasField = true
		case "id":
			f.ID = value
			hasField = true
		default:
			// "retry" and unknown fields are ignored.
		}
	}

	return f, hasField
}
