package entities

import (
	"fmt"
	"strings"
)

// Every gate violation has its own error type so callers and tests can
// distinguish failure kinds with errors.As. All of them are terminal for the
// run: the first violation halts the gate.

// ErrUnrecognizedFile rejects a touched path no rule explains. The gate is
// default-deny: every file in a commit must be an attestation, a builder key,
// or an exempt path.
type ErrUnrecognizedFile struct {
	Path string
}

func (e ErrUnrecognizedFile) Error() string {
	return fmt.Sprintf("unrecognized file touched by this commit: %s", e.Path)
}

// ErrInvalidFileStatus rejects an attestation or builder-key file whose git
// status is not allowed: attestations must be newly added, keys added or
// modified, and neither may ever be deleted.
type ErrInvalidFileStatus struct {
	Path    string
	Status  FileStatus
	Allowed string
}

func (e ErrInvalidFileStatus) Error() string {
	return fmt.Sprintf("%s has status %q, but only %s is allowed here", e.Path, string(e.Status), e.Allowed)
}

// ErrIncompleteAttestationGroup rejects a manifest/signature pair that is not
// exactly the two required files.
type ErrIncompleteAttestationGroup struct {
	Stem string
	Got  []string
	Want []string
}

func (e ErrIncompleteAttestationGroup) Error() string {
	return fmt.Sprintf("attestation %s must consist of exactly [%s], found [%s]",
		e.Stem, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

// ErrKeyNotFound reports a missing builder public key. The message carries
// the remediation so a builder can self-correct.
type ErrKeyNotFound struct {
	Path    string
	Builder string
}

func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("public key for builder %q not found at %s; export it with 'gpg --armor --export <key-id> > %s' and stage it in this commit",
		e.Builder, e.Path, e.Path)
}

// ErrMalformedKey rejects a key file that is not pure ASCII armor.
type ErrMalformedKey struct {
	Path string
}

func (e ErrMalformedKey) Error() string {
	return fmt.Sprintf("key file %s contains non-ASCII bytes and cannot be an armored public key", e.Path)
}

// ErrKeyImport rejects any key import that did not yield exactly one key.
// Detail, when set, carries the importer's own diagnosis of the failure.
type ErrKeyImport struct {
	Path     string
	Imported int
	Rejected int
	Detail   string
}

func (e ErrKeyImport) Error() string {
	msg := fmt.Sprintf("importing %s: expected exactly 1 key, got %d imported and %d rejected", e.Path, e.Imported, e.Rejected)
	if e.Detail != "" {
		msg += "; importer reported: " + e.Detail
	}
	return msg
}

// ErrManifestNotFound reports a manifest referenced by the diff that is
// absent on disk.
type ErrManifestNotFound struct {
	Path string
}

func (e ErrManifestNotFound) Error() string {
	return fmt.Sprintf("attestation manifest not found at %s", e.Path)
}

// ErrSignatureInvalid reports a detached signature that did not verify
// against the manifest with the builder's key. Status carries the verifier's
// reason.
type ErrSignatureInvalid struct {
	Signature string
	Status    string
}

func (e ErrSignatureInvalid) Error() string {
	return fmt.Sprintf("signature %s did not verify: %s", e.Signature, e.Status)
}

// ErrSignatureCount rejects a signature file holding anything other than
// exactly one signature record: an unsigned wrapper or a multiply-signed
// file must not pass just because one record checks out.
type ErrSignatureCount struct {
	Signature string
	Count     int
}

func (e ErrSignatureCount) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("signature %s holds no signature records", e.Signature)
	}
	return fmt.Sprintf("signature %s holds %d signature records, expected exactly 1", e.Signature, e.Count)
}

// ErrOrphanBuilderKey rejects builder keys touched by the commit that no new
// attestation claimed: keys cannot be staged without proof of use.
type ErrOrphanBuilderKey struct {
	Paths []string
}

func (e ErrOrphanBuilderKey) Error() string {
	return fmt.Sprintf("builder key(s) touched without a matching new attestation: %s", strings.Join(e.Paths, ", "))
}

// ErrChecksumMismatch reports a manifest entry whose on-disk file hashes to a
// different value than the manifest claims.
type ErrChecksumMismatch struct {
	File string
	Want string
	Got  string
}

func (e ErrChecksumMismatch) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: manifest says %s, file hashes to %s", e.File, e.Want, e.Got)
}
