package access

import (
	"context"
	"time"
)

// Store persists permission state.
//
// Upsert applies a transition: a grant sets granted_at and leaves revoked_at
// untouched, a revoke does the reverse, and updated_at advances monotonically
// on every call. Re-granting an already-granted pair updates only updated_at.
type Store interface {
	Upsert(ctx context.Context, principalID, organizationID string, granted bool, at time.Time) (Grant, error)
	Find(ctx context.Context, principalID, organizationID string) (Grant, error)
	ListByPrincipal(ctx context.Context, principalID string) ([]Grant, error)
	CountGranted(ctx context.Context, principalID string) (int, error)
}
