package main

import (
	"context"
	"errors"
	"flag"

	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/config"
	"github.com/openmeet/meetctl/pkg/log"
	"github.com/openmeet/meetctl/pkg/session"
)

// cliEnv bundles the configured client and session shared by every command.
type cliEnv struct {
	cfg    *config.Config
	client *api.Client
	sess   *session.Session
}

// setup parses the common flags plus any command-specific ones already
// registered on fs, then wires the client and session.
func setup(fs *flag.FlagSet, args []string) (*cliEnv, error) {
	cfg := config.FromEnv()
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	log.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jar := session.NewJar()
	client := api.NewClient(cfg.APIBaseURL,
		api.WithCookieJar(jar),
		api.WithTimeout(cfg.HTTPTimeout),
	)
	return &cliEnv{
		cfg:    cfg,
		client: client,
		sess:   session.New(client, jar, cfg.SessionFile),
	}, nil
}

// requireUser restores the saved session or fails with a login hint.
func (e *cliEnv) requireUser(ctx context.Context) (*api.User, error) {
	user, err := e.sess.Restore(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, api.ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}
