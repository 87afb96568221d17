package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trustbase/internal/ledger"
	"trustbase/internal/platform/metrics"
)

// Publisher pushes an encoded ledger entry onto the event stream. The key
// is the entry's anonymized user label so a partition preserves per-user
// ordering.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// EnqueueEntry writes the entry into the outbox inside the caller's
// transaction. It is called from the same atomic unit that appends the
// entry to the chain.
func EnqueueEntry(ctx context.Context, store Store, entry *ledger.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	return store.Enqueue(ctx, &Row{
		EntryID: entry.ID,
		Payload: payload,
	})
}

// Relay drains pending outbox rows to the publisher. Rows are marked
// published only after the publisher accepts them, so a crash between the
// two replays the row; consumers must treat entry IDs as idempotency keys.
type Relay struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	batchSize int
	interval  time.Duration
}

func NewRelay(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics, batchSize int, interval time.Duration) *Relay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		batchSize: batchSize,
		interval:  interval,
	}
}

// RunOnce publishes one batch of pending rows.
func (r *Relay) RunOnce(ctx context.Context) error {
	pending, err := r.store.ListPending(ctx, r.batchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "outbox list failed", "error", err.Error())
		return err
	}

	var published []uuid.UUID
	for _, row := range pending {
		var entry ledger.Entry
		if err := json.Unmarshal(row.Payload, &entry); err != nil {
			r.logger.ErrorContext(ctx, "outbox row undecodable",
				"outbox_id", row.ID.String(),
				"error", err.Error(),
			)
			return err
		}
		if err := r.publisher.Publish(ctx, entry.AnonymizedUserID, row.Payload); err != nil {
			r.logger.ErrorContext(ctx, "outbox publish failed",
				"outbox_id", row.ID.String(),
				"error", err.Error(),
			)
			break
		}
		published = append(published, row.ID)
		r.metrics.IncrementOutboxPublished()
	}

	if len(published) == 0 {
		return nil
	}
	return r.store.MarkPublished(ctx, published)
}

// Run drains the outbox on a fixed interval until the context is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				// Publication retries on the next tick; the rows stay pending.
				continue
			}
		}
	}
}
