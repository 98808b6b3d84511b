package advisor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/advisor/pkg/session"
)

// ErrEmptyCode is returned by VerifyCode for an empty invitation code. No
// request is made.
var ErrEmptyCode = errors.New("邀请码不能为空")

// APIError is a non-streaming failure response from the backend.
type APIError struct {
	StatusCode int
	Message    string

	// Usage is set when the response carried a usage snapshot, as the daily
	// quota rejection does.
	Usage *session.Snapshot
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("advisor returned status %d: %s", e.StatusCode, msg)
}

// QuotaExceeded reports whether the backend refused the request because of
// the usage limit or rate limiting.
func (e *APIError) QuotaExceeded() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Unwrap maps a quota rejection that carries usage onto
// session.ErrQuotaExhausted.
func (e *APIError) Unwrap() error {
	if e.QuotaExceeded() && e.Usage != nil && e.Usage.Exhausted() {
		return session.ErrQuotaExhausted
	}
	return nil
}

// VerificationError is returned when the backend rejects an invitation code.
type VerificationError struct {
	Message string
}

func (e *VerificationError) Error() string {
	if e.Message == "" {
		return "验证失败。"
	}
	return e.Message
}

// ValidationError lists the input fields that failed pre-flight validation.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is one invalid input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
