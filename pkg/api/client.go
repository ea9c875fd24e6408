package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openmeet/meetctl/pkg/log"
)

// successCode is the backend's business code for a successful envelope.
const successCode = 1000

// envelope is the backend's uniform {code, message, data} response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is a REST client for the meeting backend. Authentication rides on
// HttpOnly cookies held by the http.Client's jar; an expired access token is
// refreshed once and the original request retried, mirroring the product's
// browser interceptor.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithCookieJar installs the jar holding the access/refresh token cookies.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one API call, decoding the envelope's data into out when out
// is non-nil. A 401 on a non-auth path triggers a single refresh + retry.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	status, env, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !strings.HasPrefix(path, "/auth/") {
		log.Debugf("got 401 on %s %s, refreshing session", method, path)
		if st, _, rerr := c.roundTrip(ctx, http.MethodPost, "/auth/refresh-token", nil); rerr != nil || st >= 400 {
			return ErrNotAuthenticated
		}
		status, env, err = c.roundTrip(ctx, method, path, body)
		if err != nil {
			return err
		}
	}

	if status >= 400 || env.Code != successCode {
		return &Error{StatusCode: status, Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	env := &envelope{}
	if len(raw) > 0 {
		// Non-JSON error bodies (proxies, 5xx pages) keep the zero envelope.
		if err := json.Unmarshal(raw, env); err != nil {
			env = &envelope{Message: http.StatusText(resp.StatusCode)}
		}
	}
	return resp.StatusCode, env, nil
}
