package api

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User User `json:"user"`
}

// Login authenticates with email + password. The backend sets the token
// cookies on the response; the returned user is the authenticated account.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (*User, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/auth/register",
		registerRequest{FullName: fullName, Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout invalidates the session server-side and clears the token cookies.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the account owning the current session cookies.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
