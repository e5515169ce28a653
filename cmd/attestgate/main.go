package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "check":
		runCheck(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println(`attestgate - Signature gate for release attestation commits

Usage:
  attestgate <command> [options]

Commands:
  check   Verify every attestation and builder key touched by a commit
  diff    Print the (status, path) pairs the gate would classify

Use "attestgate <command> --help" for more information about a command.`)
}
