// Package session holds the per-process identity sent with every advisor
// request and the usage quota reported by the backend.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context is the identity of one client session. It is created once by the
// hosting command and passed explicitly to everything that builds requests.
type Context struct {
	id string

	mu             sync.RWMutex
	invitationCode string
	verified       bool
}

// New creates a session Context with a fresh identifier.
func New() *Context {
	return NewWithID(newID(time.Now()))
}

// NewWithID creates a session Context with a fixed identifier. Tests use it
// to make requests reproducible.
func NewWithID(id string) *Context {
	return &Context{id: id}
}

// ID returns the opaque session identifier. It never changes.
func (c *Context) ID() string {
	return c.id
}

// InvitationCode returns the invitation code attached to the session.
func (c *Context) InvitationCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invitationCode
}

// SetInvitationCode attaches code to the session. Changing the code clears the
// verified flag.
func (c *Context) SetInvitationCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if code != c.invitationCode {
		c.verified = false
	}
	c.invitationCode = code
}

// MarkVerified records that the backend accepted the current invitation code.
func (c *Context) MarkVerified() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified = c.invitationCode != ""
}

// Verified reports whether the current invitation code was accepted.
func (c *Context) Verified() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verified
}

// newID formats an identifier as "session-<unix millis>-<7 hex chars>".
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("session-%d-%s", now.UnixMilli(), suffix)
}
