package stream

import (
	"sync"
	"time"

	"github.com/papercomputeco/advisor/pkg/session"
)

// DefaultDebounce is the minimum interval between answer renders.
const DefaultDebounce = 150 * time.Millisecond

// Scheduler decides when accumulated text reaches the Surface.
//
// Thinking text is rendered on every update. Answer text is rate limited
// with a trailing-edge timer: the first update in a quiet period arms the
// timer, later updates replace the pending state, and the latest state is
// rendered when the timer fires. Finish and Fail cancel any pending render
// and draw the terminal state synchronously; nothing renders after them.
type Scheduler struct {
	surface  Surface
	clock    Clock
	interval time.Duration

	mu        sync.Mutex
	timer     Timer
	gen       uint64
	pending   *Snapshot
	answering bool
	finished  bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock sets the time source used for the debounce timer.
func WithSchedulerClock(c Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithInterval sets the debounce interval. Non-positive values keep the
// default.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewScheduler returns a Scheduler rendering to surface.
func NewScheduler(surface Surface, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		surface:  surface,
		clock:    SystemClock,
		interval: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify is called after every token with the current state.
func (s *Scheduler) Notify(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return
	}

	if snap.Mode == Thinking {
		s.surface.RenderThink(snap.Think, true)
		return
	}

	if !s.answering {
		s.answering = true
		s.surface.RenderThink(snap.Think, false)
	}

	s.pending = &snap
	if s.timer == nil {
		gen := s.gen
		s.timer = s.clock.AfterFunc(s.interval, func() {
			s.fire(gen)
		})
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || gen != s.gen {
		return
	}

	s.timer = nil
	if s.pending == nil {
		return
	}

	snap := *s.pending
	s.pending = nil
	s.surface.RenderAnswer(snap.Answer, true)
}

// Usage forwards a usage update to the Surface. Usage is shown even after
// the request finished.
func (s *Scheduler) Usage(usage session.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.RenderUsage(usage)
}

// Finish cancels any pending render and draws snap as the final state.
// Only the first call to Finish or Fail has an effect.
func (s *Scheduler) Finish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stop() {
		return
	}
	s.surface.RenderFinal(snap)
}

// Fail cancels any pending render and draws message in place of the output.
func (s *Scheduler) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stop() {
		return
	}
	s.surface.RenderError(message)
}

// stop must be called with mu held. It returns false if already finished.
func (s *Scheduler) stop() bool {
	if s.finished {
		return false
	}
	s.finished = true
	s.gen++
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return true
}
