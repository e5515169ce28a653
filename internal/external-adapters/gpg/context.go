// Package gpg implements OpenPGP verification using ProtonMail's go-crypto,
// a maintained fork of golang.org/x/crypto/openpgp.
package gpg

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// Context is a single-use verification scope with its own keyring. Each
// attestation gets a fresh Context so key material can never leak between
// builders. It is not safe for concurrent use and should be discarded after
// one verification.
type Context struct {
	keyring openpgp.EntityList
}

// NewContext creates an empty verification context.
func NewContext() *Context {
	return &Context{}
}

// ImportResult reports how many keys the context accepted and refused.
type ImportResult struct {
	Imported int
	Rejected int
}

// VerifyResult is the outcome of one detached-signature check.
type VerifyResult struct {
	Valid          bool
	SignatureCount int
	SignerIdentity string
	Status         string
}

// ImportArmoredKey parses an ASCII-armored key block and adds its keys to
// this context's keyring. A block that cannot be parsed counts as one
// rejected entry.
func (c *Context) ImportArmoredKey(data []byte) (ImportResult, error) {
	keys, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		return ImportResult{Rejected: 1}, fmt.Errorf("failed to read armored key: %w", err)
	}

	c.keyring = append(c.keyring, keys...)
	return ImportResult{Imported: len(keys)}, nil
}

// KeyringSize returns the number of keys held by this context.
func (c *Context) KeyringSize() int {
	return len(c.keyring)
}

// VerifyDetached checks a detached armored signature over data against the
// context's keyring. A failed check is reported through Valid and Status, not
// through the error return. SignatureCount is the number of signature packets
// in the file regardless of whether any of them verified.
func (c *Context) VerifyDetached(data, signature []byte) (VerifyResult, error) {
	result := VerifyResult{SignatureCount: countSignaturePackets(signature)}

	signer, err := openpgp.CheckArmoredDetachedSignature(c.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	if err != nil {
		result.Status = err.Error()
		return result, nil
	}

	result.Valid = true
	result.Status = "good signature"
	result.SignerIdentity = primaryIdentity(signer)
	return result, nil
}

func countSignaturePackets(signature []byte) int {
	block, err := armor.Decode(bytes.NewReader(signature))
	if err != nil {
		return 0
	}

	count := 0
	reader := packet.NewReader(block.Body)
	for {
		p, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Unknown or malformed packets do not count as signatures.
			break
		}
		if _, ok := p.(*packet.Signature); ok {
			count++
		}
	}

	return count
}

func primaryIdentity(signer *openpgp.Entity) string {
	if signer == nil {
		return ""
	}
	if ident := signer.PrimaryIdentity(); ident != nil {
		return ident.Name
	}
	return fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint)
}
