// Package stream reduces an advisor event stream into the "thinking" and
// "answer" partitions of a report and schedules their rendering.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/sse"
)

// Event names produced by the advisor backend.
const (
	EventMessage = "message"
	EventUsage   = "usage"
	EventEnd     = "end"
	EventError   = "error"
)

// Event is a decoded frame. It is one of MessageEvent, UsageEvent, EndEvent,
// ErrorEvent, UnknownEvent or MalformedEvent.
type Event interface {
	isEvent()
}

// MessageEvent carries one decoded token of generated text.
type MessageEvent struct {
	Token string
}

// UsageEvent carries a replacement usage snapshot.
type UsageEvent struct {
	Snapshot session.Snapshot
}

// EndEvent terminates a successful stream.
type EndEvent struct{}

// ErrorEvent terminates a stream with a server-reported failure. Payload is
// the raw frame data, either JSON or plain text.
type ErrorEvent struct {
	Payload string
}

// UnknownEvent is a frame whose name is not handled by this client.
type UnknownEvent struct {
	Name string
}

// MalformedEvent is a known frame whose payload could not be decoded.
type MalformedEvent struct {
	Name string
	Data string
	Err  error
}

func (MessageEvent) isEvent()   {}
func (UsageEvent) isEvent()     {}
func (EndEvent) isEvent()       {}
func (ErrorEvent) isEvent()     {}
func (UnknownEvent) isEvent()   {}
func (MalformedEvent) isEvent() {}

// Decode converts a frame into an Event.
func Decode(f sse.Frame) Event {
	switch name := f.Name(); name {
	case EventMessage:
		var token string
		if err := json.Unmarshal([]byte(f.Data), &token); err != nil {
			return MalformedEvent{Name: name, Data: f.Data, Err: err}
		}
		return MessageEvent{Token: token}

	case EventUsage:
		var raw struct {
			Used  *int `json:"used"`
			Limit *int `json:"limit"`
		}
		if err := json.Unmarshal([]byte(f.Data), &raw); err != nil {
			return MalformedEvent{Name: name, Data: f.Data, Err: err}
		}
		if raw.Used == nil || raw.Limit == nil {
			return MalformedEvent{Name: name, Data: f.Data, Err: errors.New("usage requires used and limit")}
		}
		return UsageEvent{Snapshot: session.Snapshot{Used: *raw.Used, Limit: *raw.Limit}}

	case EventEnd:
		return EndEvent{}

	case EventError:
		return ErrorEvent{Payload: f.Data}

	default:
		return UnknownEvent{Name: name}
	}
}

type errorPayload struct {
	Error     string `json:"error"`
	Traceback string `json:"traceback"`
}

// Message returns the text to show the user for an error frame: the "error"
// field of a JSON object, a JSON string, or the raw payload.
func (e ErrorEvent) Message() string {
	payload := strings.TrimSpace(e.Payload)
	if payload == "" {
		return "server reported an error"
	}

	var obj errorPayload
	if err := json.Unmarshal([]byte(payload), &obj); err == nil && obj.Error != "" {
		return obj.Error
	}

	var s string
	if err := json.Unmarshal([]byte(payload), &s); err == nil {
		return s
	}

	return payload
}

// Traceback returns the server traceback attached to a JSON error payload.
func (e ErrorEvent) Traceback() string {
	var obj errorPayload
	if err := json.Unmarshal([]byte(e.Payload), &obj); err != nil {
		return ""
	}
	return obj.Traceback
}

// ServerError is returned by Engine.Run when the stream ends with an error
// frame.
type ServerError struct {
	Message   string
	Traceback string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}
