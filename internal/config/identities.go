package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

// identityFile is the on-disk shape of the identities file.
type identityFile struct {
	Identities []identityEntry `yaml:"identities"`
}

type identityEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Level        string `yaml:"level"`
	PasswordHash string `yaml:"password_hash"`
	Disabled     bool   `yaml:"disabled"`
}

// LoadIdentities reads and validates the identities file.
// Password hashes must be argon2id in PHC format; plaintext passwords
// are never accepted.
func LoadIdentities(path string) ([]*auth.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identities file: %w", err)
	}

	var file identityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse identities file: %w", err)
	}

	seen := make(map[string]bool, len(file.Identities))
	identities := make([]*auth.Identity, 0, len(file.Identities))
	for i, entry := range file.Identities {
		if entry.ID == "" {
			return nil, fmt.Errorf("identity %d: id is required", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("identity %q: duplicate id", entry.ID)
		}
		seen[entry.ID] = true

		level, err := auth.ParseLevel(entry.Level)
		if err != nil {
			return nil, fmt.Errorf("identity %q: %w", entry.ID, err)
		}
		if entry.PasswordHash != "" && !strings.HasPrefix(entry.PasswordHash, "$argon2id$") {
			return nil, fmt.Errorf("identity %q: password_hash must be argon2id PHC format", entry.ID)
		}

		identities = append(identities, &auth.Identity{
			ID:           entry.ID,
			Name:         entry.Name,
			Level:        level,
			PasswordHash: entry.PasswordHash,
			Disabled:     entry.Disabled,
			CreatedAt:    time.Now().UTC(),
		})
	}

	return identities, nil
}
