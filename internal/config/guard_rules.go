package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaingate/chaingate/internal/domain/policy"
)

// guardRuleFile is the on-disk shape of the guard rules file.
type guardRuleFile struct {
	Rules []policy.GuardRule `yaml:"rules"`
}

// LoadGuardRules reads the guard rule pack. Structural validation only;
// CEL compilation happens when the evaluator is built, so a rule with a
// bad condition still fails startup.
func LoadGuardRules(path string) ([]policy.GuardRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guard rules file: %w", err)
	}

	var file guardRuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse guard rules file: %w", err)
	}

	seen := make(map[string]bool, len(file.Rules))
	now := time.Now().UTC()
	for i := range file.Rules {
		rule := &file.Rules[i]
		if rule.Name == "" {
			return nil, fmt.Errorf("guard rule %d: name is required", i)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("guard rule %q: duplicate name", rule.Name)
		}
		seen[rule.Name] = true

		if rule.Condition == "" {
			return nil, fmt.Errorf("guard rule %q: condition is required", rule.Name)
		}
		if rule.Action != policy.GuardDeny && rule.Action != policy.GuardFlag {
			return nil, fmt.Errorf("guard rule %q: action must be %q or %q", rule.Name, policy.GuardDeny, policy.GuardFlag)
		}
		if rule.Message == "" {
			rule.Message = fmt.Sprintf("matched guard rule %q", rule.Name)
		}
		rule.CreatedAt = now
	}

	return file.Rules, nil
}
