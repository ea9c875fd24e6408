package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openmeet/meetctl/pkg/admission"
	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/chat"
	"github.com/openmeet/meetctl/pkg/log"
	"github.com/openmeet/meetctl/pkg/realtime"
	"github.com/openmeet/meetctl/pkg/rtc"
)

func runJoin(args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	password := fs.String("meeting-password", "", "Meeting password, if any")
	mic := fs.Bool("mic", true, "Join with microphone on")
	cam := fs.Bool("cam", false, "Join with camera on")

	env, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: join [options] <meeting code or link>")
	}
	code := api.NormalizeMeetingCode(fs.Arg(0))
	if code == "" {
		return errors.New("empty meeting code")
	}

	ctx := context.Background()
	user, err := env.requireUser(ctx)
	if err != nil {
		return err
	}

	flow := admission.NewFlow(
		&admission.Config{
			MeetingCode:    code,
			Password:       *password,
			UserID:         user.ID,
			PendingTimeout: env.cfg.PendingTimeout,
		},
		env.client,
		func(ctx context.Context) (realtime.Conn, error) {
			return realtime.Dial(ctx, env.cfg.BrokerURL, env.cfg.Realtime)
		},
	)
	defer flow.Close()

	states := make(chan admission.State, 8)
	flow.OnTransition(func(s admission.State) {
		select {
		case states <- s:
		default:
		}
	})

	if err := flow.RequestToJoin(ctx, admission.MediaPrefs{MicOn: *mic, CamOn: *cam}); err != nil {
		if msg := flow.ErrorMessage(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return err
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	printedWaiting := ""
	for {
		switch flow.State() {
		case admission.StateApproved:
			return runMeeting(ctx, env, user, code, flow.Grant())

		case admission.StateTimedOut:
			return errors.New(flow.ErrorMessage())

		case admission.StateIdle:
			if msg := flow.ErrorMessage(); msg != "" {
				return errors.New(msg)
			}
			return errors.New("join request did not complete")

		case admission.StatePending:
			if msg := flow.WaitingMessage(); msg != printedWaiting {
				fmt.Println(msg)
				printedWaiting = msg
			}
		}

		select {
		case <-states:
		case <-interrupts:
			fmt.Println("Leaving the waiting room.")
			return nil
		}
	}
}

// runMeeting is the in-meeting loop shared by join and host: print the
// grant, stream chat, read outgoing messages from stdin until EOF.
func runMeeting(ctx context.Context, env *cliEnv, user *api.User, code string, grant *admission.Grant) error {
	fmt.Printf("Admitted to %s as %s.\n", code, grant.Role)
	if token, err := rtc.Decode(grant.Token); err != nil {
		log.WithError(err).Warn("could not decode media token")
	} else {
		fmt.Printf("Media room %q, identity %q, server %s\n", token.Room, token.Identity, grant.ServerURL)
		if !token.ExpiresAt.IsZero() {
			fmt.Printf("Token expires %s\n", token.ExpiresAt.Format(time.RFC1123))
		}
	}
	fmt.Printf("Mic %s, camera %s.\n", onOff(grant.Prefs.MicOn), onOff(grant.Prefs.CamOn))

	conn, err := realtime.Dial(ctx, env.cfg.BrokerURL, env.cfg.Realtime)
	if err != nil {
		return err
	}
	defer conn.Close()

	stream := chat.NewStream(code, env.client, chat.Sender{ID: user.ID.String(), Name: user.FullName})
	stream.OnMessage(func(m api.ChatMessage) {
		fmt.Printf("[%s] %s\n", m.SenderName, m.Content)
	})
	if err := stream.LoadHistory(ctx); err != nil {
		log.WithError(err).Warn("could not load chat history")
	}
	for _, m := range stream.Messages() {
		fmt.Printf("[%s] %s\n", m.SenderName, m.Content)
	}
	if err := stream.Start(conn); err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Type a message and press enter to chat. Ctrl-D leaves the meeting.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := stream.Send(scanner.Text()); err != nil {
			log.WithError(err).Warn("could not send message")
		}
	}
	fmt.Println("Left the meeting.")
	return scanner.Err()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
