package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	adapters "github.com/ochairo/attestgate/internal/domain-adapters/gateways"
	"github.com/ochairo/attestgate/internal/domain/entities"
	"github.com/ochairo/attestgate/internal/domain/interfaces"
	"github.com/ochairo/attestgate/internal/domain/interfaces/gateways"
	"github.com/ochairo/attestgate/internal/domain/services"
	"github.com/ochairo/attestgate/internal/external-adapters/gitdiff"
	"github.com/ochairo/attestgate/internal/external-adapters/yaml"
)

func runCheck(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var (
		repoDir    = fs.String("repo", ".", "Path to the attestation repository checkout")
		base       = fs.String("base", "", "Base revision of the range under review")
		head       = fs.String("head", "HEAD", "Head revision of the range under review")
		diffFile   = fs.String("diff-file", "", "Read status<TAB>path lines from this file instead of diffing revisions ('-' for stdin)")
		policyFile = fs.String("policy", "", "Gate policy YAML overriding the built-in path rules")
		verifySums = fs.Bool("verify-sums", false, "Recompute SHA256 sums for manifest entries present on disk")
		verbose    = fs.Bool("verbose", false, "Log each classification and verification step")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: attestgate check [options]

Verify one commit range's worth of changes to a release attestation
repository: every attestation manifest must be newly added together with its
detached signature, every signature must verify against the named builder's
registered public key, and every builder key touched by the range must be
claimed by a new attestation. Any file the rules do not explain fails the
gate.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  All attestations verified (gate passes)
  1  Gate violation (diagnostic names the file and the rule)
  2  Usage error

Examples:
  attestgate check --base origin/main
  attestgate check --base v27.0 --head HEAD --verify-sums
  git diff --name-status origin/main...HEAD | attestgate check --diff-file -
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	if *diffFile == "" && *base == "" {
		fmt.Fprintf(os.Stderr, "Error: either --base or --diff-file is required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	if *diffFile != "" && *base != "" {
		fmt.Fprintf(os.Stderr, "Error: --base and --diff-file are mutually exclusive\n\n")
		fs.Usage()
		os.Exit(2)
	}

	if err := executeCheck(ctx, *repoDir, *base, *head, *diffFile, *policyFile, *verifySums, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeCheck(ctx context.Context, repoDir, base, head, diffFile, policyFile string, verifySums, verbose bool) error {
	policy, err := loadPolicy(policyFile)
	if err != nil {
		return err
	}

	var log interfaces.Logger = &interfaces.NoOpLogger{}
	if verbose {
		log = &interfaces.StderrLogger{}
	}

	source, closeSource, err := changeSource(repoDir, base, head, diffFile)
	if err != nil {
		return err
	}
	defer closeSource()

	touched, err := source.Changes(ctx)
	if err != nil {
		return err
	}

	classifier := services.NewClassifier(policy, log)
	changes, err := classifier.Classify(touched)
	if err != nil {
		return err
	}

	var sums gateways.ManifestChecker
	if verifySums {
		sums = adapters.NewChecksumVerifier()
	}

	verifier := services.NewVerifier(repoDir, policy, adapters.NewSignatureGateway(), sums, log)
	if err := verifier.Verify(ctx, changes); err != nil {
		return err
	}

	fmt.Printf("OK: %d attestation(s) verified, %d builder key(s) consumed\n",
		len(changes.AttestationGroups), len(changes.BuilderKeyPaths))
	return nil
}

func loadPolicy(policyFile string) (entities.GatePolicy, error) {
	if policyFile == "" {
		return entities.DefaultGatePolicy(), nil
	}
	return yaml.NewPolicyParser().ParseFile(policyFile)
}

func changeSource(repoDir, base, head, diffFile string) (gateways.ChangeSource, func(), error) {
	if diffFile == "" {
		return gitdiff.NewRepoSource(repoDir, base, head), func() {}, nil
	}

	if diffFile == "-" {
		return gitdiff.NewReaderSource(os.Stdin), func() {}, nil
	}

	//nolint:gosec // G304: diffFile is the operator-provided --diff-file flag
	f, err := os.Open(diffFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open diff file: %w", err)
	}

	return gitdiff.NewReaderSource(f), func() { _ = f.Close() }, nil
}
