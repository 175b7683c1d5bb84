package memory

import (
	"context"
	"sync"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

// IdentityStore implements auth.IdentityStore with an in-memory map.
// Identities are seeded from configuration at startup.
// Thread-safe for concurrent access.
type IdentityStore struct {
	identities map[string]*auth.Identity
	mu         sync.RWMutex
}

// NewIdentityStore creates an empty in-memory identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{identities: make(map[string]*auth.Identity)}
}

// GetIdentity retrieves an identity by ID.
// Returns auth.ErrIdentityNotFound if it doesn't exist.
func (s *IdentityStore) GetIdentity(ctx context.Context, id string) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[id]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}

	// Return a copy to prevent mutation
	identityCopy := *identity
	return &identityCopy, nil
}

// ListIdentities returns all configured identities.
func (s *IdentityStore) ListIdentities(ctx context.Context) ([]*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*auth.Identity, 0, len(s.identities))
	for _, identity := range s.identities {
		identityCopy := *identity
		out = append(out, &identityCopy)
	}
	return out, nil
}

// AddIdentity adds or replaces an identity (for seeding and tests).
func (s *IdentityStore) AddIdentity(identity *auth.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identityCopy := *identity
	s.identities[identity.ID] = &identityCopy
}

// Compile-time interface verification.
var _ auth.IdentityStore = (*IdentityStore)(nil)
