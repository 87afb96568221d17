package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Store persists outbox rows. Enqueue must participate in the caller's
// transaction when one is carried in the context.
type Store interface {
	Enqueue(ctx context.Context, row *Row) error
	ListPending(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
