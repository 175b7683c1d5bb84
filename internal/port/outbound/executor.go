package outbound

import (
	"context"
	"errors"

	"github.com/chaingate/chaingate/internal/domain/policy"
	"github.com/chaingate/chaingate/internal/domain/query"
)

// ErrExecution marks a data store failure while running a validated
// query.
var ErrExecution = errors.New("query execution failed")

// QueryExecutor is the outbound port to the data store. Invoked only
// with a candidate that passed validation or with a pre-approved
// fallback. Implementations cap rows at the policy's MaxRows and mask
// the policy's masked columns.
type QueryExecutor interface {
	Execute(ctx context.Context, queryText string, pol policy.AccessPolicy) (*query.ResultSet, error)
}
