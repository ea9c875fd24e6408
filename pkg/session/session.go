// Package session holds the authenticated user for one client process.
// It is constructed explicitly and handed to whatever needs an identity;
// there is no ambient global session.
package session

import (
	"context"
	"errors"

	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/log"
)

var ErrNoSession = errors.New("no active session")

// Session ties an API client to a persisted cookie jar and the user those
// cookies belong to. Login and Restore initialise it; Logout tears it down.
type Session struct {
	client *api.Client
	jar    *Jar
	path   string
	user   *api.User
}

func New(client *api.Client, jar *Jar, path string) *Session {
	return &Session{client: client, jar: jar, path: path}
}

// Login authenticates and persists the resulting session cookies.
func (s *Session) Login(ctx context.Context, email, password string) (*api.User, error) {
	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.user = user
	if err := s.jar.Save(s.path); err != nil {
		log.WithError(err).Warn("failed to persist session")
	}
	return user, nil
}

// Restore loads saved cookies from disk and validates them against the
// backend. Returns ErrNoSession when the cookies are missing or stale.
func (s *Session) Restore(ctx context.Context) (*api.User, error) {
	if err := s.jar.Load(s.path); err != nil {
		return nil, err
	}
	user, err := s.client.Me(ctx)
	if err != nil {
		if api.IsUnauthorized(err) || errors.Is(err, api.ErrNotAuthenticated) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	s.user = user
	// Me may have rotated the access token via the refresh interceptor.
	if err := s.jar.Save(s.path); err != nil {
		log.WithError(err).Warn("failed to persist session")
	}
	return user, nil
}

// Logout invalidates the session server-side and wipes the local cookies.
// The local state is cleared even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	if err != nil {
		log.WithError(err).Warn("server logout failed, clearing local session anyway")
	}
	s.user = nil
	s.jar.Clear()
	if serr := s.jar.Save(s.path); serr != nil {
		log.WithError(serr).Warn("failed to clear persisted session")
	}
	return err
}

// User returns the authenticated user, or nil before Login/Restore.
func (s *Session) User() *api.User {
	return s.user
}

// Authenticated reports whether the session holds a user.
func (s *Session) Authenticated() bool {
	return s.user != nil
}
