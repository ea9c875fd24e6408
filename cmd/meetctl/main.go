package main

import (
	"fmt"
	"os"

	"github.com/openmeet/meetctl/pkg/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "login":
		err = runLogin(args)
	case "logout":
		err = runLogout(args)
	case "whoami":
		err = runWhoami(args)
	case "create":
		err = runCreate(args)
	case "schedule":
		err = runSchedule(args)
	case "history":
		err = runHistory(args)
	case "join":
		err = runJoin(args)
	case "host":
		err = runHost(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [options]

Commands:
  login      Sign in and save the session
  logout     Sign out and clear the saved session
  whoami     Show the signed-in account
  create     Create an instant meeting
  schedule   Schedule a meeting for later
  history    List past and upcoming meetings
  join       Join a meeting (waits in the waiting room if required)
  host       Host a meeting: admit or reject waiting participants, chat

Run '%s <command> -h' for more information on a command.
`, os.Args[0], os.Args[0])
}
