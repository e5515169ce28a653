// Package yaml provides YAML-based gate policy parsing.
package yaml

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/attestgate/internal/domain/entities"
)

// policyDoc represents the raw YAML structure. Every field is optional;
// omitted fields keep their compiled-in defaults.
type policyDoc struct {
	IgnoredPrefixes  []string `yaml:"ignored_prefixes"`
	KeyDir           string   `yaml:"key_dir"`
	ManifestBasename string   `yaml:"manifest_basename"`
}

// PolicyParser loads gate policy overrides from YAML documents.
type PolicyParser struct{}

// NewPolicyParser creates a new policy parser.
func NewPolicyParser() *PolicyParser {
	return &PolicyParser{}
}

// ParseFile reads and parses a policy file.
func (p *PolicyParser) ParseFile(path string) (entities.GatePolicy, error) {
	//nolint:gosec // G304: path is the operator-provided --policy flag
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.GatePolicy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	policy, err := p.Parse(data)
	if err != nil {
		return entities.GatePolicy{}, fmt.Errorf("policy file %s: %w", path, err)
	}

	return policy, nil
}

// Parse applies a YAML document on top of the default gate policy.
func (p *PolicyParser) Parse(data []byte) (entities.GatePolicy, error) {
	var doc policyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return entities.GatePolicy{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}

	policy := entities.DefaultGatePolicy()

	if len(doc.IgnoredPrefixes) > 0 {
		policy.IgnoredPrefixes = doc.IgnoredPrefixes
	}

	if doc.KeyDir != "" {
		keyDir := strings.TrimSuffix(doc.KeyDir, "/")
		if keyDir == "" || strings.Contains(keyDir, "/") {
			return entities.GatePolicy{}, fmt.Errorf("key_dir %q must be a single path segment", doc.KeyDir)
		}
		policy.KeyDir = keyDir
	}

	if doc.ManifestBasename != "" {
		if strings.Contains(doc.ManifestBasename, "/") || strings.HasSuffix(doc.ManifestBasename, ".asc") {
			return entities.GatePolicy{}, fmt.Errorf("manifest_basename %q must be a bare filename without an .asc suffix", doc.ManifestBasename)
		}
		policy.ManifestBasename = doc.ManifestBasename
	}

	return policy, nil
}
