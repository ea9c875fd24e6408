package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/chat"
	"github.com/openmeet/meetctl/pkg/log"
	"github.com/openmeet/meetctl/pkg/realtime"
	"github.com/openmeet/meetctl/pkg/waitingroom"
)

func runHost(args []string) error {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	password := fs.String("meeting-password", "", "Meeting password, if any")

	env, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: host [options] <meeting code or link>")
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

	out, err := env.client.Join(ctx, code, *password)
	if err != nil {
		return err
	}
	if !out.Approved() {
		if out.Message != "" {
			return errors.New(out.Message)
		}
		return fmt.Errorf("not admitted as host: status %s", out.Status)
	}
	fmt.Printf("Hosting %s as %s.\n", code, user.FullName)

	conn, err := realtime.Dial(ctx, env.cfg.BrokerURL, env.cfg.Realtime)
	if err != nil {
		return err
	}
	defer conn.Close()

	waiting := waitingroom.NewController(code, env.client)
	waiting.OnChange(func(entries []api.WaitingEntry) {
		if len(entries) == 0 {
			fmt.Println("Waiting room is empty.")
			return
		}
		fmt.Printf("Waiting room (%d):\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %s  %s <%s>\n", e.ParticipantID, e.DisplayName, e.Email)
		}
	})
	if err := waiting.Start(ctx, conn); err != nil {
		return err
	}
	defer waiting.Close()

	stream := chat.NewStream(code, env.client, chat.Sender{ID: user.ID.String(), Name: user.FullName})
	stream.OnMessage(func(m api.ChatMessage) {
		fmt.Printf("[%s] %s\n", m.SenderName, m.Content)
	})
	if err := stream.LoadHistory(ctx); err != nil {
		log.WithError(err).Warn("could not load chat history")
	}
	if err := stream.Start(conn); err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Commands: /approve <id>, /reject <id>, /list. Anything else is sent to chat. Ctrl-D ends hosting.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "/approve "):
			hostDecide(ctx, waiting, strings.TrimPrefix(line, "/approve "), api.ActionApprove)
		case strings.HasPrefix(line, "/reject "):
			hostDecide(ctx, waiting, strings.TrimPrefix(line, "/reject "), api.ActionReject)
		case line == "/list":
			if err := waiting.Fetch(ctx); err != nil {
				log.WithError(err).Warn("could not refresh the waiting room")
			}
		default:
			if err := stream.Send(line); err != nil {
				log.WithError(err).Warn("could not send message")
			}
		}
	}
	fmt.Println("Stopped hosting.")
	return scanner.Err()
}

func hostDecide(ctx context.Context, waiting *waitingroom.Controller, rawID string, action api.ApprovalAction) {
	participantID, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Not a participant id: %s\n", rawID)
		return
	}
	if err := waiting.Decide(ctx, participantID, action); err != nil {
		log.WithError(err).Warn("decision was not applied")
	}
}
