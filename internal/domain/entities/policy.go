package entities

// GatePolicy holds the path rules for one gate run: which prefixes are exempt
// from classification, where builder keys live, and what the attestation
// manifest is called. Immutable for the lifetime of a run.
type GatePolicy struct {
	// IgnoredPrefixes lists path prefixes exempt from all classification.
	IgnoredPrefixes []string

	// KeyDir is the single directory segment holding builder public keys.
	KeyDir string

	// ManifestBasename is the attestation manifest filename. The detached
	// signature is always ManifestBasename + ".asc".
	ManifestBasename string
}

// DefaultGatePolicy returns the compiled-in rules: documentation and CI
// config are exempt, keys live under builder-keys/, and attestations are
// noncodesigned.SHA256SUMS pairs.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		IgnoredPrefixes: []string{
			"README.md",
			"ERRATA.md",
			"contrib/",
			".github/",
		},
		KeyDir:           "builder-keys",
		ManifestBasename: "noncodesigned.SHA256SUMS",
	}
}

// SignatureBasename is the detached signature filename for the manifest.
func (p GatePolicy) SignatureBasename() string {
	return p.ManifestBasename + ".asc"
}

// KeyPathFor returns the repository-relative path where the named builder's
// public key must live.
func (p GatePolicy) KeyPathFor(builder string) string {
	return p.KeyDir + "/" + builder + ".asc"
}
