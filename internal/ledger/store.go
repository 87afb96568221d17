package ledger

import "context"

// Store persists chain entries. Implementations must make Tail-then-Insert
// safe against forks when both run inside the same atomic unit of work: the
// memory store relies on the coordinator's serialized transaction, the
// postgres store additionally locks the tail row and carries a uniqueness
// constraint on previous_hash so a lost race surfaces as sentinel.ErrConflict
// instead of a second entry sharing a predecessor.
type Store interface {
	// Tail returns the entry with the greatest (timestamp, id), or nil when
	// the chain is empty.
	Tail(ctx context.Context) (*Entry, error)

	// Insert appends an entry, assigning its sequence ID.
	Insert(ctx context.Context, entry *Entry) error

	// List returns a page in total order descending plus the total count.
	List(ctx context.Context, limit, offset int) ([]Entry, int64, error)

	// ListAscending returns the full chain oldest first, for verification.
	ListAscending(ctx context.Context) ([]Entry, error)

	// Stats aggregates the whole chain.
	Stats(ctx context.Context) (Stats, error)
}
