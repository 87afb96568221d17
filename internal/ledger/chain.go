package ledger

import (
	"context"
	"time"

	dErrors "trustbase/pkg/domain-errors"
)

// Appender builds the next chain link. It must be called inside the
// coordinator's atomic unit of work: reading the tail and inserting the new
// entry in separate transactions would let two concurrent appends observe
// the same tail and fork the chain.
type Appender struct {
	store Store
}

func NewAppender(store Store) *Appender {
	return &Appender{store: store}
}

// Append reads the current tail, computes the next entry hash over the
// canonical encoding, and inserts the new entry. A lost race against a
// concurrent appender surfaces as sentinel.ErrConflict from the store; the
// caller retries its whole unit of work, which re-reads the new tail.
func (a *Appender) Append(ctx context.Context, anonUserID, anonOrgID string, action Action, at time.Time) (*Entry, error) {
	if !action.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown ledger action")
	}

	tail, err := a.store.Tail(ctx)
	if err != nil {
		return nil, err
	}

	var previousHash *string
	if tail != nil {
		prev := tail.EntryHash
		previousHash = &prev
	}

	// Stored at the same precision the canonical hash encoding uses, so
	// the persisted timestamp round-trips into an identical digest.
	entry := &Entry{
		AnonymizedUserID: anonUserID,
		AnonymizedOrgID:  anonOrgID,
		Action:           action,
		Timestamp:        at.UTC().Truncate(time.Microsecond),
		PreviousHash:     previousHash,
	}
	entry.EntryHash = ComputeEntryHash(anonUserID, anonOrgID, action, entry.Timestamp, previousHash)

	if err := a.store.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
