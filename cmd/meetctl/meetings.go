package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/openmeet/meetctl/pkg/api"
	"github.com/openmeet/meetctl/pkg/log"
)

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	env, err := setup(fs, args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := env.requireUser(ctx); err != nil {
		return err
	}

	meeting, err := env.client.CreateInstant(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Created instant meeting %s\n", meeting.MeetingCode)
	fmt.Printf("Run '%s host %s' to open it.\n", os.Args[0], meeting.MeetingCode)
	return nil
}

func runSchedule(args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	title := fs.String("title", "", "Meeting title")
	password := fs.String("meeting-password", "", "Optional meeting password")
	start := fs.String("start", "", "Start time (RFC 3339, e.g. 2026-09-01T14:00:00Z)")
	end := fs.String("end", "", "Optional end time (RFC 3339)")
	access := fs.String("access", "", "Access type (e.g. PUBLIC, WAITING_ROOM)")

	env, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *title == "" || *start == "" {
		return errors.New("both -title and -start are required")
	}

	startTime, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	req := api.ScheduleRequest{
		Title:      *title,
		Password:   *password,
		StartTime:  &startTime,
		AccessType: *access,
	}
	if *end != "" {
		endTime, err := time.Parse(time.RFC3339, *end)
		if err != nil {
			return fmt.Errorf("invalid -end: %w", err)
		}
		req.EndTime = &endTime
	}

	ctx := context.Background()
	if _, err := env.requireUser(ctx); err != nil {
		return err
	}

	meeting, err := env.client.Schedule(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Scheduled %q as %s for %s\n", meeting.Title, meeting.MeetingCode, startTime.Format(time.RFC1123))
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	page := fs.Int("page", 1, "Page number")
	size := fs.Int("size", 10, "Page size")
	status := fs.String("status", "ALL", "Filter by status (ALL, FINISHED, ACTIVE, SCHEDULED, CANCELED)")
	role := fs.String("role", "ALL", "Filter by role (ALL, HOST, GUEST)")

	env, err := setup(fs, args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := env.requireUser(ctx); err != nil {
		return err
	}

	if upNext, err := env.client.UpNext(ctx); err != nil {
		log.WithError(err).Debug("up-next lookup failed")
	} else if upNext != nil {
		fmt.Printf("Up next: %q (%s)", upNext.Title, upNext.MeetingCode)
		if upNext.StartTime != nil {
			fmt.Printf(" at %s", upNext.StartTime.Format(time.RFC1123))
		}
		fmt.Println()
	}

	history, err := env.client.History(ctx, *page, *size, *status, *role)
	if err != nil {
		return err
	}
	if len(history.Content) == 0 {
		fmt.Println("No meetings.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tTITLE\tSTART\tSTATUS\tROLE")
	for _, entry := range history.Content {
		entryRole := "guest"
		if entry.IsHost {
			entryRole = "host"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			entry.MeetingCode, entry.Title, entry.StartTime, entry.Status, entryRole)
	}
	w.Flush()
	fmt.Printf("Page %d of %d (%d meetings)\n", *page, history.TotalPages, history.TotalElements)
	return nil
}
