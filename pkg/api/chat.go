package api

import (
	"context"
	"net/http"
	"net/url"
)

// ChatHistory returns the meeting's persisted chat messages, oldest first.
func (c *Client) ChatHistory(ctx context.Context, code string) ([]ChatMessage, error) {
	var out []ChatMessage
	if err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(code)+"/chat", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
