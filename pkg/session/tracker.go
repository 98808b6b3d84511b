package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrQuotaExhausted is returned when a submission is refused because the
// usage quota has been reached.
var ErrQuotaExhausted = errors.New("usage quota exhausted")

// Snapshot is the usage quota as reported by the backend.
type Snapshot struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Exhausted reports whether no further submissions are allowed.
func (s Snapshot) Exhausted() bool {
	return s.Used >= s.Limit
}

// Remaining returns how many submissions are left, never negative.
func (s Snapshot) Remaining() int {
	return max(s.Limit-s.Used, 0)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("今日用量: %d / %d", s.Used, s.Limit)
}

// Tracker holds the most recent usage Snapshot for the lifetime of the
// process. It is safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	snapshot Snapshot
	known    bool
	err      error
}

// NewTracker returns a Tracker whose quota is unknown.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordUsage replaces the held snapshot and returns the gate decision:
// true when further submissions must be blocked.
func (t *Tracker) RecordUsage(s Snapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshot = s
	t.known = true
	t.err = nil

	return s.Exhausted()
}

// MarkUnknown records that the quota could not be fetched. An unknown quota
// never blocks submission.
func (t *Tracker) MarkUnknown(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.known = false
	t.err = err
}

// Current returns the held snapshot and whether it is known.
func (t *Tracker) Current() (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot, t.known
}

// Err returns the error recorded by MarkUnknown, if any.
func (t *Tracker) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Blocked reports whether the gate is closed.
func (t *Tracker) Blocked() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.known && t.snapshot.Exhausted()
}

// Check returns ErrQuotaExhausted when the gate is closed.
func (t *Tracker) Check() error {
	if t.Blocked() {
		s, _ := t.Current()
		return fmt.Errorf("%w (%d / %d)", ErrQuotaExhausted, s.Used, s.Limit)
	}
	return nil
}
