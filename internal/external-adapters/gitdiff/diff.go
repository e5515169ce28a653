// Package gitdiff extracts the (status, path) pairs touched between two
// revisions of a local git repository.
package gitdiff

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/ochairo/attestgate/internal/domain/entities"
)

// RepoSource diffs the trees of two resolved revisions of a repository.
type RepoSource struct {
	repoPath string
	base     string
	head     string
}

// NewRepoSource creates a source diffing base..head in the repository at
// repoPath. Revisions accept anything git rev-parse does (hashes, refs,
// HEAD~1, ...).
func NewRepoSource(repoPath, base, head string) *RepoSource {
	return &RepoSource{repoPath: repoPath, base: base, head: head}
}

// Changes returns the touched files between the two revisions, sorted by
// path. go-git does not detect renames, so a rename surfaces as a delete plus
// an add, which is exactly how the gate wants to judge it.
func (s *RepoSource) Changes(ctx context.Context) ([]entities.TouchedFile, error) {
	repo, err := git.PlainOpenWithOptions(s.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", s.repoPath, err)
	}

	baseTree, err := revisionTree(repo, s.base)
	if err != nil {
		return nil, err
	}

	headTree, err := revisionTree(repo, s.head)
	if err != nil {
		return nil, err
	}

	changes, err := baseTree.DiffContext(ctx, headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", s.base, s.head, err)
	}

	touched := make([]entities.TouchedFile, 0, len(changes))
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve change action: %w", err)
		}

		switch action {
		case merkletrie.Insert:
			touched = append(touched, entities.TouchedFile{Status: entities.StatusAdded, Path: change.To.Name})
		case merkletrie.Delete:
			touched = append(touched, entities.TouchedFile{Status: entities.StatusDeleted, Path: change.From.Name})
		case merkletrie.Modify:
			touched = append(touched, entities.TouchedFile{Status: entities.StatusModified, Path: change.To.Name})
		}
	}

	sort.Slice(touched, func(i, j int) bool { return touched[i].Path < touched[j].Path })
	return touched, nil
}

func revisionTree(repo *git.Repository, rev string) (*object.Tree, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", hash, err)
	}

	return tree, nil
}

// ReaderSource parses "status<TAB>path" lines, the shape produced by
// git diff --name-status, so the gate can consume a pre-computed diff.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource wraps a name-status stream.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Changes parses the stream. Blank lines are skipped. Rename and copy lines
// carry a similarity score and two paths (for example "R100\told\tnew"): a
// rename removes its source, so it expands into a delete of the source plus
// an add of the destination; a copy leaves the source untouched and expands
// into an add of the destination alone. Both halves face the gate's rules.
func (s *ReaderSource) Changes(_ context.Context) ([]entities.TouchedFile, error) {
	var touched []entities.TouchedFile

	scanner := bufio.NewScanner(s.r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 || fields[0] == "" {
			return nil, fmt.Errorf("malformed diff line %d: %q (expected status<TAB>path)", line, text)
		}

		status := entities.FileStatus(fields[0][:1])
		switch status {
		case "R", "C":
			if len(fields) != 3 || fields[1] == "" || fields[2] == "" {
				return nil, fmt.Errorf("malformed diff line %d: %q (expected status<TAB>source<TAB>destination)", line, text)
			}
			if status == "R" {
				touched = append(touched, entities.TouchedFile{Status: entities.StatusDeleted, Path: fields[1]})
			}
			touched = append(touched, entities.TouchedFile{Status: entities.StatusAdded, Path: fields[2]})
		default:
			if len(fields) != 2 || fields[1] == "" {
				return nil, fmt.Errorf("malformed diff line %d: %q (expected status<TAB>path)", line, text)
			}
			touched = append(touched, entities.TouchedFile{Status: status, Path: fields[1]})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diff input: %w", err)
	}

	return touched, nil
}
