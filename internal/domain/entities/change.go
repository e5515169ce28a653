// Package entities defines core domain models and data structures.
package entities

import (
	"sort"
	"strings"
)

// FileStatus is the single-letter name-status code git assigns to a file
// touched by a commit.
type FileStatus string

const (
	StatusAdded    FileStatus = "A"
	StatusModified FileStatus = "M"
	StatusDeleted  FileStatus = "D"
)

// TouchedFile is one (status, path) pair from a commit diff. Paths are
// slash-separated and relative to the repository root.
type TouchedFile struct {
	Status FileStatus
	Path   string
}

// PathKind identifies which gate rule a touched path falls under.
type PathKind int

const (
	// PathUnrecognized is the default: no rule explains the path.
	PathUnrecognized PathKind = iota

	// PathIgnored matches an exempt prefix (docs, contrib, CI config).
	PathIgnored

	// PathAttestation matches <namespace>/<builder>/<manifest>[.asc].
	PathAttestation

	// PathBuilderKey matches <keydir>/<builder>.asc.
	PathBuilderKey
)

// PathClass is the structured classification of a single touched path.
type PathClass struct {
	Kind PathKind

	// Stem is the attestation manifest path with any ".asc" suffix
	// stripped. Set only for PathAttestation.
	Stem string

	// Builder is the key filename stem. Set only for PathBuilderKey.
	Builder string
}

// AttestationGroup collects the basenames observed for one attestation stem.
// A group is complete iff it holds exactly the manifest and its detached
// signature.
type AttestationGroup struct {
	Stem      string
	Basenames map[string]struct{}
}

// Builder derives the builder identity from the group's stem: the second
// path segment of <namespace>/<builder>/<manifest>. The identity is a naming
// convention used to locate the key file; trust comes from the signature
// check alone.
func (g *AttestationGroup) Builder() string {
	segments := strings.Split(g.Stem, "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[1]
}

// SortedBasenames returns the group's basenames in lexical order.
func (g *AttestationGroup) SortedBasenames() []string {
	names := make([]string, 0, len(g.Basenames))
	for name := range g.Basenames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChangeSet is the classifier's view of one commit: attestation groups keyed
// by stem, plus the builder-key paths touched alongside them. It lives for a
// single gate run.
type ChangeSet struct {
	AttestationGroups map[string]*AttestationGroup
	BuilderKeyPaths   map[string]struct{}
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		AttestationGroups: make(map[string]*AttestationGroup),
		BuilderKeyPaths:   make(map[string]struct{}),
	}
}

// AddAttestationBasename records a basename under the group for stem,
// creating the group on first sight.
func (c *ChangeSet) AddAttestationBasename(stem, basename string) {
	group, ok := c.AttestationGroups[stem]
	if !ok {
		group = &AttestationGroup{Stem: stem, Basenames: make(map[string]struct{})}
		c.AttestationGroups[stem] = group
	}
	group.Basenames[basename] = struct{}{}
}

// AddBuilderKeyPath records a builder-key path touched by the commit.
func (c *ChangeSet) AddBuilderKeyPath(path string) {
	c.BuilderKeyPaths[path] = struct{}{}
}

// SortedStems returns the attestation stems in lexical order so the verifier
// processes groups, and reports failures, deterministically.
func (c *ChangeSet) SortedStems() []string {
	stems := make([]string, 0, len(c.AttestationGroups))
	for stem := range c.AttestationGroups {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	return stems
}
