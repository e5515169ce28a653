package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ochairo/attestgate/internal/domain/entities"
	"github.com/ochairo/attestgate/internal/domain/interfaces"
	"github.com/ochairo/attestgate/internal/domain/interfaces/gateways"
)

// Verifier cryptographically checks every attestation group against its
// builder's registered public key and enforces that every builder key touched
// by the commit was claimed by exactly one new attestation.
type Verifier struct {
	root       string
	policy     entities.GatePolicy
	signatures gateways.SignatureGateway
	sums       gateways.ManifestChecker
	log        interfaces.Logger
}

// NewVerifier creates a verifier rooted at the repository checkout. sums may
// be nil to skip manifest checksum spot-checks.
func NewVerifier(root string, policy entities.GatePolicy, signatures gateways.SignatureGateway, sums gateways.ManifestChecker, log interfaces.Logger) *Verifier {
	return &Verifier{
		root:       root,
		policy:     policy,
		signatures: signatures,
		sums:       sums,
		log:        log,
	}
}

// Verify processes every attestation stem in lexical order and fails fast on
// the first violation. Builder keys are consumed as attestations claim them;
// any key left unclaimed afterwards fails the run.
func (v *Verifier) Verify(ctx context.Context, changes *entities.ChangeSet) error {
	remaining := make(map[string]struct{}, len(changes.BuilderKeyPaths))
	for keyPath := range changes.BuilderKeyPaths {
		remaining[keyPath] = struct{}{}
	}

	for _, stem := range changes.SortedStems() {
		if err := v.verifyAttestation(ctx, changes.AttestationGroups[stem], remaining); err != nil {
			return err
		}
	}

	if len(remaining) > 0 {
		orphans := make([]string, 0, len(remaining))
		for keyPath := range remaining {
			orphans = append(orphans, keyPath)
		}
		sort.Strings(orphans)
		return entities.ErrOrphanBuilderKey{Paths: orphans}
	}

	return nil
}

func (v *Verifier) verifyAttestation(_ context.Context, group *entities.AttestationGroup, remaining map[string]struct{}) error {
	builder := group.Builder()
	keyRel := v.policy.KeyPathFor(builder)
	delete(remaining, keyRel)

	armor, err := os.ReadFile(v.abs(keyRel))
	if err != nil {
		if os.IsNotExist(err) {
			return entities.ErrKeyNotFound{Path: keyRel, Builder: builder}
		}
		return fmt.Errorf("failed to read key file %s: %w", keyRel, err)
	}

	if !isASCII(armor) {
		return entities.ErrMalformedKey{Path: keyRel}
	}

	// A fresh context per attestation: nothing imported for one builder can
	// be consulted when verifying another.
	sctx := v.signatures.NewContext()
	imported, err := sctx.ImportArmoredKey(armor)
	if err != nil {
		return entities.ErrKeyImport{Path: keyRel, Imported: imported.Imported, Rejected: imported.Rejected, Detail: err.Error()}
	}
	if imported.Imported != 1 || imported.Rejected != 0 {
		return entities.ErrKeyImport{Path: keyRel, Imported: imported.Imported, Rejected: imported.Rejected}
	}

	manifest, err := os.ReadFile(v.abs(group.Stem))
	if err != nil {
		if os.IsNotExist(err) {
			return entities.ErrManifestNotFound{Path: group.Stem}
		}
		return fmt.Errorf("failed to read manifest %s: %w", group.Stem, err)
	}

	sigRel := group.Stem + ".asc"
	signature, err := os.ReadFile(v.abs(sigRel))
	if err != nil {
		return fmt.Errorf("failed to read signature %s: %w", sigRel, err)
	}

	report, err := sctx.VerifyDetached(manifest, signature)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", sigRel, err)
	}

	if !report.Valid {
		return entities.ErrSignatureInvalid{Signature: sigRel, Status: report.Status}
	}

	if report.SignatureCount != 1 {
		return entities.ErrSignatureCount{Signature: sigRel, Count: report.SignatureCount}
	}

	v.log.Info("attestation verified",
		interfaces.F("builder", builder),
		interfaces.F("manifest", group.Stem),
		interfaces.F("signer", report.SignerIdentity))

	if v.sums != nil {
		checked, err := v.sums.CheckManifest(v.root, manifest)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", group.Stem, err)
		}
		v.log.Info("manifest checksums spot-checked",
			interfaces.F("manifest", group.Stem),
			interfaces.F("entries", checked))
	}

	return nil
}

func (v *Verifier) abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b > 0x7f {
			return false
		}
	}
	return true
}
