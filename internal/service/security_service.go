package service

import (
	"context"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/port/inbound"
)

// SecurityService serves aggregated audit statistics.
type SecurityService struct {
	store audit.AuditQueryStore
}

// NewSecurityService creates the security summary service.
func NewSecurityService(store audit.AuditQueryStore) *SecurityService {
	return &SecurityService{store: store}
}

// Summary returns audit statistics as of now.
func (s *SecurityService) Summary(ctx context.Context) (*audit.Summary, error) {
	return s.store.Summary(ctx, time.Now().UTC())
}

var _ inbound.SecurityReporter = (*SecurityService)(nil)
