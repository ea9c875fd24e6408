package api

import (
	"errors"
	"fmt"
)

var ErrNotAuthenticated = errors.New("not authenticated (run 'meetctl login' first)")

// Error is a failed call to the backend. Code is the backend's business
// code from the response envelope; StatusCode the HTTP status.
type Error struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (code %d, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed (code %d, http %d)", e.Code, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}
