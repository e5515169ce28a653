// Package services implements the gate's core verification logic.
package services

import (
	"path"
	"strings"

	"github.com/ochairo/attestgate/internal/domain/entities"
	"github.com/ochairo/attestgate/internal/domain/interfaces"
)

// Classifier partitions the files touched by a commit into attestation
// groups, builder-key paths, and exempt paths. Anything else, and any
// disallowed git status, is a policy violation.
type Classifier struct {
	policy entities.GatePolicy
	log    interfaces.Logger
}

// NewClassifier creates a classifier for one gate run.
func NewClassifier(policy entities.GatePolicy, log interfaces.Logger) *Classifier {
	return &Classifier{policy: policy, log: log}
}

// ClassifyPath assigns a single path to one of the gate's rule buckets,
// first match wins. Pure path-shape logic; statuses are checked in Classify.
func (c *Classifier) ClassifyPath(p string) entities.PathClass {
	for _, prefix := range c.policy.IgnoredPrefixes {
		if strings.HasPrefix(p, prefix) {
			return entities.PathClass{Kind: entities.PathIgnored}
		}
	}

	segments := strings.Split(p, "/")
	for _, segment := range segments {
		if segment == "" {
			return entities.PathClass{Kind: entities.PathUnrecognized}
		}
	}

	// <namespace>/<builder>/<anything>.SHA256SUMS with an optional
	// detached-signature suffix. The match is deliberately wider than the
	// policy's manifest basename: a sums file under an unexpected name is
	// still an attestation candidate, so it fails the per-group pair check
	// rather than landing in the unrecognized bucket.
	if len(segments) == 3 {
		base := strings.TrimSuffix(segments[2], ".asc")
		if strings.HasSuffix(base, ".SHA256SUMS") || base == c.policy.ManifestBasename {
			return entities.PathClass{
				Kind: entities.PathAttestation,
				Stem: strings.TrimSuffix(p, ".asc"),
			}
		}
	}

	// <keydir>/<builder>.asc
	if len(segments) == 2 && segments[0] == c.policy.KeyDir {
		builder := strings.TrimSuffix(segments[1], ".asc")
		if builder != segments[1] && builder != "" {
			return entities.PathClass{Kind: entities.PathBuilderKey, Builder: builder}
		}
	}

	return entities.PathClass{Kind: entities.PathUnrecognized}
}

// Classify processes every touched file and returns the commit's change set.
// The first violation halts classification: an unrecognized path, a deleted
// or modified attestation, a deleted builder key, or (after the pass) any
// attestation group that is not exactly a manifest plus its signature.
func (c *Classifier) Classify(files []entities.TouchedFile) (*entities.ChangeSet, error) {
	changes := entities.NewChangeSet()

	for _, f := range files {
		class := c.ClassifyPath(f.Path)
		switch class.Kind {
		case entities.PathIgnored:
			c.log.Debug("path exempt from classification", interfaces.F("path", f.Path))

		case entities.PathAttestation:
			if f.Status != entities.StatusAdded {
				return nil, entities.ErrInvalidFileStatus{
					Path:    f.Path,
					Status:  f.Status,
					Allowed: "a newly added attestation (status A)",
				}
			}
			changes.AddAttestationBasename(class.Stem, path.Base(f.Path))
			c.log.Debug("attestation file", interfaces.F("path", f.Path), interfaces.F("stem", class.Stem))

		case entities.PathBuilderKey:
			if f.Status != entities.StatusAdded && f.Status != entities.StatusModified {
				return nil, entities.ErrInvalidFileStatus{
					Path:    f.Path,
					Status:  f.Status,
					Allowed: "an added or modified builder key (status A or M)",
				}
			}
			changes.AddBuilderKeyPath(f.Path)
			c.log.Debug("builder key file", interfaces.F("path", f.Path), interfaces.F("builder", class.Builder))

		default:
			return nil, entities.ErrUnrecognizedFile{Path: f.Path}
		}
	}

	want := []string{c.policy.ManifestBasename, c.policy.SignatureBasename()}
	for _, stem := range changes.SortedStems() {
		group := changes.AttestationGroups[stem]
		if !hasExactBasenames(group, want) {
			return nil, entities.ErrIncompleteAttestationGroup{
				Stem: stem,
				Got:  group.SortedBasenames(),
				Want: want,
			}
		}
	}

	return changes, nil
}

func hasExactBasenames(group *entities.AttestationGroup, want []string) bool {
	if len(group.Basenames) != len(want) {
		return false
	}
	for _, name := range want {
		if _, ok := group.Basenames[name]; !ok {
			return false
		}
	}
	return true
}
