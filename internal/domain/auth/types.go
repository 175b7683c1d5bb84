// Package auth contains identities and access levels for ChainGate users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AccessLevel is a coarse role governing which warehouse views a session
// may query and how many rows it may pull.
type AccessLevel string

const (
	// LevelGuest has limited read-only access to the summary view.
	LevelGuest AccessLevel = "guest"
	// LevelUser has standard access to the monitoring views.
	LevelUser AccessLevel = "user"
	// LevelAnalyst adds the raw chain definition and log tables.
	LevelAnalyst AccessLevel = "analyst"
	// LevelAdmin adds process log and variant tables.
	LevelAdmin AccessLevel = "admin"
	// LevelSystem is for internal automation; same tables as admin, no row cap.
	LevelSystem AccessLevel = "system"
)

// AllLevels lists every access level in ascending order of privilege.
var AllLevels = []AccessLevel{LevelGuest, LevelUser, LevelAnalyst, LevelAdmin, LevelSystem}

// ParseLevel converts a string to an AccessLevel.
// Returns an error for unrecognized values.
func ParseLevel(s string) (AccessLevel, error) {
	for _, lvl := range AllLevels {
		if string(lvl) == s {
			return lvl, nil
		}
	}
	return "", fmt.Errorf("unknown access level %q", s)
}

// rank maps levels to an ordering for AtLeast comparisons.
var rank = map[AccessLevel]int{
	LevelGuest:   0,
	LevelUser:    1,
	LevelAnalyst: 2,
	LevelAdmin:   3,
	LevelSystem:  4,
}

// AtLeast reports whether l carries at least the privilege of other.
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return rank[l] >= rank[other]
}

// Identity represents a configured user of the gateway.
type Identity struct {
	// ID is the unique user identifier.
	ID string
	// Name is the human-readable display name.
	Name string
	// Level is the identity's access level.
	Level AccessLevel
	// PasswordHash is the Argon2id (PHC format) hash of the password.
	// Empty for identities that authenticate out of band.
	PasswordHash string
	// Disabled identities cannot log in.
	Disabled bool
	// CreatedAt is when the identity was configured (UTC).
	CreatedAt time.Time
}

// Sentinel errors for identity lookup and credential checks.
var (
	// ErrIdentityNotFound is returned when no identity matches the ID.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrInvalidCredentials is returned on password mismatch or a disabled
	// identity. Deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IdentityStore provides identity lookup.
// Interface owned by the domain; implementations live in adapters.
type IdentityStore interface {
	// GetIdentity returns the identity with the given ID.
	// Returns ErrIdentityNotFound if it does not exist.
	GetIdentity(ctx context.Context, id string) (*Identity, error)

	// ListIdentities returns all configured identities.
	ListIdentities(ctx context.Context) ([]*Identity, error)
}
