// Package outbound defines the outbound port interfaces for the
// completion service and the data store.
package outbound

import (
	"context"
	"errors"
)

// Completion failure taxonomy. The pipeline treats all three as
// "generation failed" and proceeds to fallback.
var (
	// ErrCompletionUnavailable marks a transient network or provider
	// fault.
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrQuotaExceeded marks a provider quota rejection.
	ErrQuotaExceeded = errors.New("completion quota exceeded")

	// ErrAuthFailure marks a credential rejection by the provider.
	ErrAuthFailure = errors.New("completion authentication failed")
)

// CompletionClient is the outbound port to the text-completion
// service. Adapters enforce a minimum inter-call spacing before
// dispatch and bound the call with a timeout.
type CompletionClient interface {
	// Complete sends a prompt and returns the raw completion text.
	// Errors wrap one of the taxonomy sentinels above.
	Complete(ctx context.Context, prompt string) (string, error)
}
