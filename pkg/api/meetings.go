package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

type joinRequest struct {
	Password string `json:"password,omitempty"`
}

type approvalRequest struct {
	ParticipantID uuid.UUID `json:"participantId"`
	Action        string    `json:"action"`
}

// CreateInstant creates a meeting that starts now, hosted by the caller.
func (c *Client) CreateInstant(ctx context.Context) (*Meeting, error) {
	var out Meeting
	if err := c.do(ctx, http.MethodPost, "/meetings/instant", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Schedule creates a meeting for a future start time.
func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) (*Meeting, error) {
	var out Meeting
	if err := c.do(ctx, http.MethodPost, "/meetings/schedule", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Info returns the public descriptor for a meeting code.
func (c *Client) Info(ctx context.Context, code string) (*Meeting, error) {
	var out Meeting
	if err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(code)+"/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel cancels a meeting the caller hosts.
func (c *Client) Cancel(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodDelete, "/meetings/"+url.PathEscape(code), nil, nil)
}

// Join asks to enter a meeting. The outcome may be an immediate APPROVED
// grant, a PENDING placement in the waiting room, or a REJECTED refusal.
func (c *Client) Join(ctx context.Context, code, password string) (*JoinOutcome, error) {
	var out JoinOutcome
	err := c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(code)+"/join", joinRequest{Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitingList returns the meeting's current waiting room, host only.
func (c *Client) WaitingList(ctx context.Context, code string) ([]WaitingEntry, error) {
	var out []WaitingEntry
	if err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(code)+"/waiting-room", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decide approves or rejects a waiting participant, host only.
func (c *Client) Decide(ctx context.Context, code string, participantID uuid.UUID, action ApprovalAction) error {
	req := approvalRequest{ParticipantID: participantID, Action: string(action)}
	return c.do(ctx, http.MethodPost, "/meetings/"+url.PathEscape(code)+"/approval", req, nil)
}

// History returns a page of past and scheduled meetings.
func (c *Client) History(ctx context.Context, page, size int, status, role string) (*HistoryPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	if status != "" {
		q.Set("status", status)
	}
	if role != "" {
		q.Set("role", role)
	}
	var out HistoryPage
	if err := c.do(ctx, http.MethodGet, "/meetings/history?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpNext returns the caller's next upcoming meeting, or nil when there is none.
func (c *Client) UpNext(ctx context.Context) (*Meeting, error) {
	var out *Meeting
	if err := c.do(ctx, http.MethodGet, "/meetings/up-next", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeMeetingCode extracts a bare meeting code from user input, which
// may be a pasted invite link with a trailing slash or embedded whitespace.
func NormalizeMeetingCode(input string) string {
	code := strings.TrimSpace(input)
	if strings.Contains(code, "/") {
		code = strings.TrimSuffix(code, "/")
		parts := strings.Split(code, "/")
		code = parts[len(parts)-1]
	}
	return strings.Join(strings.Fields(code), "")
}
