package gateways

// ImportResult reports how many keys a verification context accepted and
// refused from one key file.
type ImportResult struct {
	Imported int
	Rejected int
}

// SignatureReport is the outcome of one detached-signature check.
type SignatureReport struct {
	// Valid is the single pass/fail flag for the cryptographic check.
	Valid bool

	// SignatureCount is the number of signature records found in the
	// signature file, independent of whether any of them verified.
	SignatureCount int

	// SignerIdentity names the key that produced a valid signature, when
	// known.
	SignerIdentity string

	// Status carries the verifier's human-readable reason, chiefly on
	// failure.
	Status string
}

// SignatureContext is a single-use verification scope. Keys imported into one
// context are never visible to any other, so one builder's key material can
// never vouch for another builder's attestation.
type SignatureContext interface {
	// ImportArmoredKey adds the keys found in an ASCII-armored block to
	// this context.
	ImportArmoredKey(armor []byte) (ImportResult, error)

	// VerifyDetached checks a detached armored signature over data using
	// the keys imported so far.
	VerifyDetached(data, signature []byte) (SignatureReport, error)
}

// SignatureGateway mints fresh, isolated verification contexts.
type SignatureGateway interface {
	NewContext() SignatureContext
}

// ManifestChecker recomputes the checksums a manifest claims for files
// present on disk under root.
type ManifestChecker interface {
	// CheckManifest returns how many entries were actually checked;
	// entries whose files are absent are skipped.
	CheckManifest(root string, manifest []byte) (int, error)
}
