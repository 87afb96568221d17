// Package outbox persists ledger entries destined for the event stream in
// the same transaction that wrote them, so downstream consumers never see a
// publication the chain does not contain.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Status of an outbox row.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Row is one pending publication. Payload carries the ledger entry encoded
// as JSON at enqueue time, inside the appending transaction.
type Row struct {
	ID          uuid.UUID
	EntryID     int64
	Payload     []byte
	Status      string
	CreatedAt   time.Time
	PublishedAt *time.Time
}
