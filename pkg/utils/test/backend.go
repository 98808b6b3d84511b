package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/pkg/advisor"
	"github.com/papercomputeco/advisor/pkg/session"
)

// FakeBackend is an in-process advisor backend serving /api/usage,
// /api/verify_code and /api/handler from scripted state.
type FakeBackend struct {
	URL string

	app *fiber.App
	ln  net.Listener

	mu sync.Mutex

	usage       session.Snapshot
	usageFailed bool
	codes       map[string]bool
	frames      []string
	chunkSize   int
	handlerErr  *handlerFailure
	hold        chan struct{}
	requests    []advisor.Request
	verifyCalls int
}

type handlerFailure struct {
	status  int
	message string
	usage   *session.Snapshot
}

// NewFakeBackend starts a FakeBackend on a random local port. codes lists
// the accepted invitation codes.
func NewFakeBackend(codes ...string) (*FakeBackend, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}

	b := &FakeBackend{
		URL:   "http://" + ln.Addr().String(),
		ln:    ln,
		usage: session.Snapshot{Used: 0, Limit: 100},
		codes: make(map[string]bool),
	}
	for _, c := range codes {
		b.codes[c] = true
	}

	b.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	b.app.Get("/api/usage", b.handleUsage)
	b.app.Post("/api/verify_code", b.handleVerify)
	b.app.Post("/api/handler", b.handleSubmit)

	go func() {
		_ = b.app.Listener(ln)
	}()

	return b, nil
}

// Close releases any held stream and stops the server.
func (b *FakeBackend) Close() error {
	b.Release()
	return b.app.ShutdownWithTimeout(2 * time.Second)
}

// SetUsage sets the quota reported by /api/usage and checked by
// /api/handler.
func (b *FakeBackend) SetUsage(s session.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage = s
	b.usageFailed = false
}

// FailUsage makes /api/usage respond with a server error.
func (b *FakeBackend) FailUsage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.usageFailed = true
}

// SetStream scripts the frames written by /api/handler. Each frame is a
// complete "event: ...\n\n" segment.
func (b *FakeBackend) SetStream(frames ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = frames
	b.handlerErr = nil
}

// SetChunkSize splits the scripted stream into writes of n bytes, cutting
// through frames and multi-byte characters. Zero writes one frame at a time.
func (b *FakeBackend) SetChunkSize(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunkSize = n
}

// FailSubmit makes /api/handler respond with a JSON error.
func (b *FakeBackend) FailSubmit(status int, message string, usage *session.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlerErr = &handlerFailure{status: status, message: message, usage: usage}
}

// Hold makes the next streams block after their scripted frames until
// Release is called.
func (b *FakeBackend) Hold() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = make(chan struct{})
}

// Release unblocks held streams.
func (b *FakeBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hold != nil {
		close(b.hold)
		b.hold = nil
	}
}

// Requests returns the decoded bodies received by /api/handler.
func (b *FakeBackend) Requests() []advisor.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]advisor.Request(nil), b.requests...)
}

// VerifyCalls returns the number of /api/verify_code requests.
func (b *FakeBackend) VerifyCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.verifyCalls
}

func (b *FakeBackend) handleUsage(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.usageFailed {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"used":  "N/A",
			"limit": "N/A",
			"error": "usage store unavailable",
		})
	}
	return c.JSON(b.usage)
}

func (b *FakeBackend) handleVerify(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifyCalls++

	var body struct {
		InvitationCode *string `json:"invitationCode"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil || body.InvitationCode == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "无效的请求格式。"})
	}
	if !b.codes[*body.InvitationCode] {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": "无效的邀请码。"})
	}
	return c.JSON(fiber.Map{"success": true})
}

func (b *FakeBackend) handleSubmit(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var req advisor.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "无效的请求格式。"})
	}
	b.requests = append(b.requests, req)

	if !b.codes[req.InvitationCode] {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "无效的邀请码。"})
	}

	if f := b.handlerErr; f != nil {
		body := fiber.Map{"error": f.message}
		if f.usage != nil {
			body["usage"] = f.usage
		}
		return c.Status(f.status).JSON(body)
	}

	if b.usage.Exhausted() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fmt.Sprintf("非常抱歉，今日的免费体验名额（%d次）已被抢完！请您明日再来。", b.usage.Limit),
			"usage": b.usage,
		})
	}

	chunks := chunk(strings.Join(b.frames, ""), b.frames, b.chunkSize)
	hold := b.hold

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		for _, ch := range chunks {
			if _, err := pw.Write([]byte(ch)); err != nil {
				return
			}
		}
		if hold != nil {
			<-hold
		}
	}()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}

func chunk(raw string, frames []string, size int) []string {
	if size <= 0 {
		return frames
	}
	var out []string
	for i := 0; i < len(raw); i += size {
		out = append(out, raw[i:min(i+size, len(raw))])
	}
	return out
}

// MessageFrame encodes a token as a message frame.
func MessageFrame(token string) string {
	data, _ := json.Marshal(token)
	return "event: message\ndata: " + string(data) + "\n\n"
}

// UsageFrame encodes a usage frame.
func UsageFrame(used, limit int) string {
	return fmt.Sprintf("event: usage\ndata: {\"used\": %d, \"limit\": %d}\n\n", used, limit)
}

// EndFrame is the terminal frame of a successful stream.
func EndFrame() string {
	return "event: end\ndata: End of stream\n\n"
}

// ErrorFrame encodes a server error frame with a JSON payload.
func ErrorFrame(message string) string {
	data, _ := json.Marshal(map[string]string{"error": message})
	return "event: error\ndata: " + string(data) + "\n\n"
}
