package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/stream"
)

// Conversation asks questions within one session. The first successful
// question carries the student background; every later one is sent as a
// follow-up. A Conversation is not safe for concurrent use: a session has
// at most one request in flight.
type Conversation struct {
	client  *Client
	session *session.Context
	tracker *session.Tracker
	logger  *slog.Logger
	opts    []stream.Option
	turns   int
}

// NewConversation creates a Conversation. opts configure the stream Engine
// of every request.
func NewConversation(client *Client, sess *session.Context, tracker *session.Tracker, l *slog.Logger, opts ...stream.Option) *Conversation {
	if l == nil {
		l = logger.Nop()
	}
	return &Conversation{
		client:  client,
		session: sess,
		tracker: tracker,
		logger:  l,
		opts:    append([]stream.Option{stream.WithLogger(l)}, opts...),
	}
}

// Session returns the session the conversation belongs to.
func (c *Conversation) Session() *session.Context {
	return c.session
}

// Tracker returns the usage tracker gating the conversation.
func (c *Conversation) Tracker() *session.Tracker {
	return c.tracker
}

// Turns returns the number of completed questions.
func (c *Conversation) Turns() int {
	return c.turns
}

// RefreshUsage fetches the quota into the tracker. A failed fetch leaves
// the quota unknown, which does not block, and is returned for reporting.
func (c *Conversation) RefreshUsage(ctx context.Context) (session.Snapshot, error) {
	s, err := c.client.Usage(ctx)
	if err != nil {
		c.tracker.MarkUnknown(err)
		c.logger.Warn("usage unavailable", "error", err)
		return session.Snapshot{}, err
	}

	c.tracker.RecordUsage(s)
	return s, nil
}

// Verify checks the session's invitation code once. Later calls return nil
// until the code changes.
func (c *Conversation) Verify(ctx context.Context) error {
	if c.session.Verified() {
		return nil
	}

	if err := c.client.VerifyCode(ctx, c.session.InvitationCode()); err != nil {
		return err
	}

	c.session.MarkVerified()
	c.logger.Debug("session verified", "session", c.session.ID())
	return nil
}

// Ask validates input, checks the quota gate, verifies the invitation code
// and streams the report to surface. Quota information carried by a
// rejected submission updates the tracker.
func (c *Conversation) Ask(ctx context.Context, input UserInput, surface stream.Surface) (stream.Result, error) {
	input.IsFollowUp = c.turns > 0

	if err := input.Validate(); err != nil {
		return stream.Result{}, err
	}

	if err := c.tracker.Check(); err != nil {
		return stream.Result{}, err
	}

	if err := c.Verify(ctx); err != nil {
		return stream.Result{}, err
	}

	req := NewRequest(c.session, input)
	body, err := c.client.Submit(ctx, req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Usage != nil {
			c.tracker.RecordUsage(*apiErr.Usage)
			surface.RenderUsage(*apiErr.Usage)
		}
		return stream.Result{}, err
	}
	defer body.Close()

	engine := stream.NewEngine(surface, c.tracker, c.opts...)
	res, err := engine.Run(ctx, body)
	if err != nil {
		return res, fmt.Errorf("streaming report: %w", err)
	}

	c.turns++
	c.logger.Debug("report received",
		"session", c.session.ID(),
		"turn", c.turns,
		"follow_up", input.IsFollowUp,
		"answer_bytes", len(res.Snapshot.Answer),
		"duration", res.Duration,
	)

	return res, nil
}
