package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"agora/contexts/association-governance/governance-engine/domain/entities"

	"gopkg.in/yaml.v3"
)

type policyFile struct {
	Default      yaml.Node            `yaml:"default"`
	Associations map[string]yaml.Node `yaml:"associations"`
}

// PolicySet serves the default governance policy plus per-association
// overrides. An override only replaces the keys it names.
type PolicySet struct {
	Default   entities.GovernancePolicy
	Overrides map[string]entities.GovernancePolicy
}

// LoadPolicies parses the policy file at path. An empty path yields the
// built-in defaults.
func LoadPolicies(path string) (PolicySet, error) {
	set := PolicySet{Default: entities.DefaultGovernancePolicy()}
	if strings.TrimSpace(path) == "" {
		return set, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return PolicySet{}, fmt.Errorf("error reading policy file: %w", err)
	}
	return ParsePolicies(buf)
}

func ParsePolicies(buf []byte) (PolicySet, error) {
	set := PolicySet{Default: entities.DefaultGovernancePolicy()}
	var file policyFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return PolicySet{}, fmt.Errorf("error parsing policy file: %w", err)
	}
	if !file.Default.IsZero() {
		if err := file.Default.Decode(&set.Default); err != nil {
			return PolicySet{}, fmt.Errorf("error parsing default policy: %w", err)
		}
	}
	if err := set.Default.Validate(); err != nil {
		return PolicySet{}, fmt.Errorf("default policy: %w", err)
	}
	for associationID, node := range file.Associations {
		override := set.Default
		if err := node.Decode(&override); err != nil {
			return PolicySet{}, fmt.Errorf("error parsing policy for %s: %w", associationID, err)
		}
		if err := override.Validate(); err != nil {
			return PolicySet{}, fmt.Errorf("policy for %s: %w", associationID, err)
		}
		if set.Overrides == nil {
			set.Overrides = make(map[string]entities.GovernancePolicy)
		}
		set.Overrides[strings.TrimSpace(associationID)] = override
	}
	return set, nil
}

func (p PolicySet) PolicyFor(_ context.Context, associationID string) (entities.GovernancePolicy, error) {
	if override, ok := p.Overrides[strings.TrimSpace(associationID)]; ok {
		return override, nil
	}
	return p.Default, nil
}
