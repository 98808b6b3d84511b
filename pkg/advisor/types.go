package advisor

import "github.com/papercomputeco/advisor/pkg/session"

// UserInput is the student background and question sent with a request.
type UserInput struct {
	// RawText is the student's notes and the dilemma to analyze.
	RawText string `json:"rawText"`

	Province  string `json:"province,omitempty"`
	Rank      string `json:"rank,omitempty"`
	Stream    string `json:"stream,omitempty"`
	ScoreType string `json:"scoreType,omitempty"`

	// IsFollowUp marks a question asked in the same session after the first
	// report. Only RawText is used by the backend for follow-ups.
	IsFollowUp bool `json:"isFollowUp,omitempty"`
}

// Request is the body of POST /api/handler.
type Request struct {
	UserInput      UserInput `json:"userInput"`
	SessionID      string    `json:"sessionId"`
	InvitationCode string    `json:"invitationCode"`
}

// NewRequest builds a Request carrying the identity and invitation code of
// sess.
func NewRequest(sess *session.Context, input UserInput) Request {
	return Request{
		UserInput:      input,
		SessionID:      sess.ID(),
		InvitationCode: sess.InvitationCode(),
	}
}

type verifyRequest struct {
	InvitationCode string `json:"invitationCode"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// errorResponse is the JSON body of a non-streaming failure.
type errorResponse struct {
	Error string            `json:"error"`
	Usage *session.Snapshot `json:"usage,omitempty"`
}
