package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/openmeet/meetctl/pkg/session"
)

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")

	env, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("both -email and -password are required")
	}

	user, err := env.sess.Login(context.Background(), *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s <%s>\n", user.FullName, user.Email)
	return nil
}

func runLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	env, err := setup(fs, args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := env.sess.Restore(ctx); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			fmt.Println("Not logged in.")
			return nil
		}
		return err
	}
	if err := env.sess.Logout(ctx); err != nil {
		// Local session is cleared regardless; report but don't fail.
		fmt.Println("Logged out locally (server logout failed).")
		return nil
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	env, err := setup(fs, args)
	if err != nil {
		return err
	}

	user, err := env.requireUser(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> (%s)\n", user.FullName, user.Email, user.ID)
	return nil
}
