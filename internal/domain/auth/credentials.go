package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// argon2idParams defines OWASP minimum parameters for Argon2id.
// Memory: 47 MiB, Iterations: 1, Parallelism: 1
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword returns an Argon2id hash of the password in PHC format.
// Format: $argon2id$v=19$m=48128,t=1,p=1$<salt>$<hash>
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2idParams)
}

// VerifyPassword verifies a password against a stored PHC-format hash.
// Returns (false, nil) on mismatch; an error only for malformed hashes.
func VerifyPassword(password, storedHash string) (bool, error) {
	if !strings.HasPrefix(storedHash, "$argon2id$") {
		return false, fmt.Errorf("unsupported password hash format")
	}
	match, err := argon2id.ComparePasswordAndHash(password, storedHash)
	if err != nil {
		return false, fmt.Errorf("failed to compare password hash: %w", err)
	}
	return match, nil
}

// Authenticator verifies login credentials against the identity store.
type Authenticator struct {
	store IdentityStore
}

// NewAuthenticator creates an Authenticator backed by the given store.
func NewAuthenticator(store IdentityStore) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate checks a user ID and password and returns the identity.
// Returns ErrInvalidCredentials for unknown users, disabled identities,
// and password mismatches alike.
func (a *Authenticator) Authenticate(ctx context.Context, userID, password string) (*Identity, error) {
	identity, err := a.store.GetIdentity(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if identity.Disabled || identity.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	match, err := VerifyPassword(password, identity.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}
