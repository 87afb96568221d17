package anonymizer

import "context"

// Store persists the (kind, real ID) -> label mapping.
//
// Find returns sentinel.ErrNotFound when no label has been assigned yet.
// Assign allocates the next unused sequence for the kind and persists the
// mapping; it returns sentinel.ErrConflict when a concurrent writer won the
// allocation race, in which case the caller re-reads via Find.
type Store interface {
	Find(ctx context.Context, kind EntityKind, realID string) (Label, error)
	Assign(ctx context.Context, kind EntityKind, realID string) (Label, error)
}
