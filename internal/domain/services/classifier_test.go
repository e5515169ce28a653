package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ochairo/attestgate/internal/domain/entities"
	"github.com/ochairo/attestgate/internal/domain/interfaces"
)

func newTestClassifier() *Classifier {
	return NewClassifier(entities.DefaultGatePolicy(), &interfaces.NoOpLogger{})
}

func TestClassifyPath(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		path string
		want entities.PathClass
	}{
		{
			name: "readme is exempt",
			path: "README.md",
			want: entities.PathClass{Kind: entities.PathIgnored},
		},
		{
			name: "contrib subtree is exempt",
			path: "contrib/tooling/fetch.sh",
			want: entities.PathClass{Kind: entities.PathIgnored},
		},
		{
			name: "ci config is exempt",
			path: ".github/workflows/check.yml",
			want: entities.PathClass{Kind: entities.PathIgnored},
		},
		{
			name: "manifest",
			path: "27.0/alice/noncodesigned.SHA256SUMS",
			want: entities.PathClass{Kind: entities.PathAttestation, Stem: "27.0/alice/noncodesigned.SHA256SUMS"},
		},
		{
			name: "detached signature shares the manifest stem",
			path: "27.0/alice/noncodesigned.SHA256SUMS.asc",
			want: entities.PathClass{Kind: entities.PathAttestation, Stem: "27.0/alice/noncodesigned.SHA256SUMS"},
		},
		{
			name: "builder key",
			path: "builder-keys/alice.asc",
			want: entities.PathClass{Kind: entities.PathBuilderKey, Builder: "alice"},
		},
		{
			name: "unexpected sums basename is still an attestation candidate",
			path: "27.0/alice/codesigned.SHA256SUMS",
			want: entities.PathClass{Kind: entities.PathAttestation, Stem: "27.0/alice/codesigned.SHA256SUMS"},
		},
		{
			name: "unexpected sums signature shares its stem",
			path: "27.0/alice/codesigned.SHA256SUMS.asc",
			want: entities.PathClass{Kind: entities.PathAttestation, Stem: "27.0/alice/codesigned.SHA256SUMS"},
		},
		{
			name: "manifest at wrong depth",
			path: "27.0/noncodesigned.SHA256SUMS",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
		{
			name: "manifest too deep",
			path: "27.0/alice/extra/noncodesigned.SHA256SUMS",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
		{
			name: "empty path segment",
			path: "27.0//noncodesigned.SHA256SUMS",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
		{
			name: "key without asc suffix",
			path: "builder-keys/alice.gpg",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
		{
			name: "bare asc suffix is not a builder name",
			path: "builder-keys/.asc",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
		{
			name: "key nested too deep",
			path: "builder-keys/sub/alice.asc",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
		{
			name: "unrelated file",
			path: "Makefile",
			want: entities.PathClass{Kind: entities.PathUnrecognized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.ClassifyPath(tt.path))
		})
	}
}

func TestClassifyIgnoredOnlyCommit(t *testing.T) {
	c := newTestClassifier()

	changes, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusModified, Path: "README.md"},
		{Status: entities.StatusModified, Path: "ERRATA.md"},
		{Status: entities.StatusDeleted, Path: "contrib/old-script.sh"},
		{Status: entities.StatusAdded, Path: ".github/workflows/new.yml"},
	})
	require.NoError(t, err)
	require.Empty(t, changes.AttestationGroups)
	require.Empty(t, changes.BuilderKeyPaths)
}

func TestClassifyCompleteAttestationCommit(t *testing.T) {
	c := newTestClassifier()

	changes, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS"},
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS.asc"},
		{Status: entities.StatusAdded, Path: "builder-keys/alice.asc"},
	})
	require.NoError(t, err)

	require.Len(t, changes.AttestationGroups, 1)
	group := changes.AttestationGroups["27.0/alice/noncodesigned.SHA256SUMS"]
	require.NotNil(t, group)
	require.Equal(t, "alice", group.Builder())
	require.Equal(t, []string{"noncodesigned.SHA256SUMS", "noncodesigned.SHA256SUMS.asc"}, group.SortedBasenames())

	require.Contains(t, changes.BuilderKeyPaths, "builder-keys/alice.asc")
}

func TestClassifyRejectsUnrecognizedFile(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS"},
		{Status: entities.StatusAdded, Path: "random.txt"},
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &entities.ErrUnrecognizedFile{})
	require.Contains(t, err.Error(), "random.txt")
}

func TestClassifyRejectsModifiedAttestation(t *testing.T) {
	c := newTestClassifier()

	for _, status := range []entities.FileStatus{entities.StatusModified, entities.StatusDeleted} {
		_, err := c.Classify([]entities.TouchedFile{
			{Status: status, Path: "27.0/alice/noncodesigned.SHA256SUMS"},
		})
		require.Error(t, err)
		var statusErr entities.ErrInvalidFileStatus
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.Status)
		require.Equal(t, "27.0/alice/noncodesigned.SHA256SUMS", statusErr.Path)
	}
}

func TestClassifyRejectsDeletedBuilderKey(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusDeleted, Path: "builder-keys/alice.asc"},
	})
	require.Error(t, err)
	var statusErr entities.ErrInvalidFileStatus
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "builder-keys/alice.asc", statusErr.Path)
}

func TestClassifyAllowsModifiedBuilderKey(t *testing.T) {
	c := newTestClassifier()

	changes, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusModified, Path: "builder-keys/alice.asc"},
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS"},
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS.asc"},
	})
	require.NoError(t, err)
	require.Contains(t, changes.BuilderKeyPaths, "builder-keys/alice.asc")
}

func TestClassifyRejectsManifestWithoutSignature(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS"},
	})
	require.Error(t, err)
	var groupErr entities.ErrIncompleteAttestationGroup
	require.ErrorAs(t, err, &groupErr)
	require.Equal(t, "27.0/alice/noncodesigned.SHA256SUMS", groupErr.Stem)
	require.Equal(t, []string{"noncodesigned.SHA256SUMS"}, groupErr.Got)
}

// A sums pair under a name the policy does not expect reaches the group
// check and is reported as an incomplete group, not as an unrecognized path.
func TestClassifyRejectsWronglyNamedSumsPair(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "27.0/alice/codesigned.SHA256SUMS"},
		{Status: entities.StatusAdded, Path: "27.0/alice/codesigned.SHA256SUMS.asc"},
	})
	require.Error(t, err)
	var groupErr entities.ErrIncompleteAttestationGroup
	require.ErrorAs(t, err, &groupErr)
	require.Equal(t, "27.0/alice/codesigned.SHA256SUMS", groupErr.Stem)
	require.Equal(t, []string{"codesigned.SHA256SUMS", "codesigned.SHA256SUMS.asc"}, groupErr.Got)
	require.Equal(t, []string{"noncodesigned.SHA256SUMS", "noncodesigned.SHA256SUMS.asc"}, groupErr.Want)
}

func TestClassifyRejectsSignatureWithoutManifest(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "27.0/alice/noncodesigned.SHA256SUMS.asc"},
	})
	require.Error(t, err)
	var groupErr entities.ErrIncompleteAttestationGroup
	require.ErrorAs(t, err, &groupErr)
	require.Equal(t, []string{"noncodesigned.SHA256SUMS.asc"}, groupErr.Got)
}

func TestClassifyCustomPolicy(t *testing.T) {
	policy := entities.GatePolicy{
		IgnoredPrefixes:  []string{"docs/"},
		KeyDir:           "keys",
		ManifestBasename: "all.SHA256SUMS",
	}
	c := NewClassifier(policy, &interfaces.NoOpLogger{})

	changes, err := c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "v1/bob/all.SHA256SUMS"},
		{Status: entities.StatusAdded, Path: "v1/bob/all.SHA256SUMS.asc"},
		{Status: entities.StatusAdded, Path: "keys/bob.asc"},
		{Status: entities.StatusModified, Path: "docs/index.md"},
	})
	require.NoError(t, err)
	require.Len(t, changes.AttestationGroups, 1)
	require.Contains(t, changes.BuilderKeyPaths, "keys/bob.asc")

	// The default key directory means nothing under this policy.
	_, err = c.Classify([]entities.TouchedFile{
		{Status: entities.StatusAdded, Path: "builder-keys/bob.asc"},
	})
	require.ErrorAs(t, err, &entities.ErrUnrecognizedFile{})
}
