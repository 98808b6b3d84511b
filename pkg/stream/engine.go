package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/sse"
)

// Result summarizes one completed request.
type Result struct {
	Snapshot Snapshot

	// Usage is the last usage snapshot seen on the stream, if any.
	Usage      session.Snapshot
	UsageKnown bool

	// Blocked is the gate decision of the last usage snapshot.
	Blocked bool

	Frames    int
	Malformed int
	Duration  time.Duration
}

// Engine reduces advisor event streams and drives a Surface. An Engine may
// run many requests, one at a time; every Run starts from a fresh Splitter
// and Scheduler.
type Engine struct {
	surface    Surface
	tracker    *session.Tracker
	logger     *slog.Logger
	clock      Clock
	interval   time.Duration
	transcript io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the time source for render debouncing.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithDebounce sets the minimum interval between answer renders.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithTranscript copies the raw response bytes to w.
func WithTranscript(w io.Writer) Option {
	return func(e *Engine) {
		e.transcript = w
	}
}

// NewEngine returns an Engine that renders to surface and records usage on
// tracker.
func NewEngine(surface Surface, tracker *session.Tracker, opts ...Option) *Engine {
	e := &Engine{
		surface:  surface,
		tracker:  tracker,
		logger:   logger.Nop(),
		clock:    SystemClock,
		interval: DefaultDebounce,
	}
	if e.surface == nil {
		e.surface = NopSurface{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run consumes body until an end or error frame, EOF, a read error or ctx
// cancellation.
//
// A server error frame is returned as *ServerError. Read failures are
// wrapped and returned. A stream that reaches EOF without an end frame is
// finished normally.
func (e *Engine) Run(ctx context.Context, body io.Reader) (Result, error) {
	start := time.Now()

	splitter := NewSplitter()
	sched := NewScheduler(e.surface, WithSchedulerClock(e.clock), WithInterval(e.interval))
	reader := sse.NewTeeReader(body, e.transcript)

	var res Result
	done := func() {
		res.Snapshot = splitter.Snapshot()
		res.Duration = time.Since(start)
	}

	for {
		if err := ctx.Err(); err != nil {
			return e.abort(&res, splitter, sched, err, done)
		}

		f, err := reader.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return e.abort(&res, splitter, sched, err, done)
		}

		if f == nil {
			if residual := reader.Residual(); residual != "" {
				e.logger.Debug("discarding unterminated frame", "bytes", len(residual))
			}
			e.logger.Warn("stream closed without end event", "frames", res.Frames)
			splitter.OnEnd()
			sched.Finish(splitter.Snapshot())
			done()
			return res, nil
		}

		res.Frames++

		switch ev := Decode(*f).(type) {
		case MessageEvent:
			splitter.OnToken(ev.Token)
			sched.Notify(splitter.Snapshot())

		case UsageEvent:
			res.Usage = ev.Snapshot
			res.UsageKnown = true
			if e.tracker != nil {
				res.Blocked = e.tracker.RecordUsage(ev.Snapshot)
			} else {
				res.Blocked = ev.Snapshot.Exhausted()
			}
			sched.Usage(ev.Snapshot)

		case EndEvent:
			splitter.OnEnd()
			sched.Finish(splitter.Snapshot())
			done()
			e.logger.Debug("stream finished",
				"frames", res.Frames,
				"malformed", res.Malformed,
				"mode", res.Snapshot.Mode,
				"duration", res.Duration,
			)
			return res, nil

		case ErrorEvent:
			msg := ev.Message()
			splitter.OnError(msg)
			sched.Fail(msg)
			done()
			return res, &ServerError{Message: msg, Traceback: ev.Traceback()}

		case MalformedEvent:
			res.Malformed++
			e.logger.Warn("skipping malformed frame", "event", ev.Name, "error", ev.Err)

		case UnknownEvent:
			e.logger.Debug("ignoring unknown event", "event", ev.Name)
		}
	}
}

func (e *Engine) abort(res *Result, splitter *Splitter, sched *Scheduler, err error, done func()) (Result, error) {
	msg := fmt.Sprintf("请求失败: %v", err)
	splitter.OnError(msg)
	sched.Fail(msg)
	done()
	return *res, fmt.Errorf("reading advisor stream: %w", err)
}
