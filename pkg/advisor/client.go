// Package advisor is a client for the college admission advisor backend.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

const (
	// DefaultBaseURL is the address of a locally running advisor backend.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout bounds the JSON endpoints. Streams are bounded only by
	// the request context.
	DefaultTimeout = 30 * time.Second

	eventStreamType = "text/event-stream"
)

// Client talks to the advisor backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Config holds configuration for the Client.
type Config struct {
	// BaseURL is the backend address (e.g., "http://localhost:5000").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Timeout bounds the usage and verification calls.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// HTTPClient is used for all requests. It must not set a Timeout, which
	// would cut long reports short. Defaults to a new http.Client.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Usage fetches today's usage quota.
func (c *Client) Usage(ctx context.Context) (session.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/usage", nil)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("creating usage request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("fetching usage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session.Snapshot{}, decodeAPIError(resp)
	}

	var raw struct {
		Used  *int `json:"used"`
		Limit *int `json:"limit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return session.Snapshot{}, fmt.Errorf("decoding usage: %w", err)
	}
	if raw.Used == nil || raw.Limit == nil {
		return session.Snapshot{}, fmt.Errorf("decoding usage: missing used or limit")
	}

	return session.Snapshot{Used: *raw.Used, Limit: *raw.Limit}, nil
}

// VerifyCode checks an invitation code. A rejected code returns a
// *VerificationError carrying the backend's message.
func (c *Client) VerifyCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCode
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.postJSON(ctx, "/api/verify_code", verifyRequest{InvitationCode: code})
	if err != nil {
		return fmt.Errorf("verifying invitation code: %w", err)
	}
	defer resp.Body.Close()

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decoding verification response: %w", err)
	}

	if !body.Success {
		return &VerificationError{Message: body.Error}
	}

	c.logger.Debug("invitation code accepted")
	return nil
}

// Stream is an open event stream returned by Submit. The caller must close
// it.
type Stream struct {
	Body       io.ReadCloser
	StatusCode int
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.Body.Read(p)
}

func (s *Stream) Close() error {
	return s.Body.Close()
}

// Submit posts a request and returns the response event stream. Failures
// reported as a JSON body are returned as *APIError. Cancelling ctx aborts
// the stream.
func (c *Client) Submit(ctx context.Context, r Request) (*Stream, error) {
	resp, err := c.postJSON(ctx, "/api/handler", r)
	if err != nil {
		return nil, fmt.Errorf("submitting request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !isEventStream(resp.Header.Get("Content-Type")) {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	c.logger.Debug("stream opened",
		"session", r.SessionID,
		"follow_up", r.UserInput.IsFollowUp,
	)

	return &Stream{Body: resp.Body, StatusCode: resp.StatusCode}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", eventStreamType+", application/json")

	return c.httpClient.Do(req)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		apiErr.Usage = body.Usage
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}

	return apiErr
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == eventStreamType
}
