package verifier

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
	"github.com/louisbranch/rfidhub/internal/services/hub/storage"
)

// StoreVerifier answers from a local tag store by exact match.
type StoreVerifier struct {
	store   storage.TagStore
	timeout time.Duration
}

// NewStoreVerifier wraps store with the given per-call timeout.
func NewStoreVerifier(store storage.TagStore, timeout time.Duration) *StoreVerifier {
	return &StoreVerifier{store: store, timeout: timeoutOrDefault(timeout)}
}

// Exists queries the store once.
func (v *StoreVerifier) Exists(ctx context.Context, tag string) (bool, error) {
	if v == nil || v.store == nil {
		return false, apperrors.New(apperrors.CodeVerifierUnavailable, "tag store is not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	exists, err := v.store.TagExists(callCtx, tag)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeVerifierUnavailable, "query tag store", err)
	}
	return exists, nil
}

var _ Verifier = (*StoreVerifier)(nil)
