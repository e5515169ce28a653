package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/attestgate/internal/external-adapters/gitdiff"
)

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	var (
		repoDir = fs.String("repo", ".", "Path to the repository checkout")
		base    = fs.String("base", "", "Base revision of the range")
		head    = fs.String("head", "HEAD", "Head revision of the range")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: attestgate diff --base <rev> [options]

Print the status<TAB>path pairs between two revisions, the exact input the
check command classifies. Useful for inspecting what the gate will judge.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	if *base == "" {
		fmt.Fprintf(os.Stderr, "Error: --base is required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	touched, err := gitdiff.NewRepoSource(*repoDir, *base, *head).Changes(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, f := range touched {
		fmt.Printf("%s\t%s\n", f.Status, f.Path)
	}
}
