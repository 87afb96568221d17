package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory keeps outbox rows in a slice for tests and single-process runs.
type InMemory struct {
	mu   sync.Mutex
	rows []Row
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Enqueue(ctx context.Context, row *Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = StatusPending
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	s.rows = append(s.rows, *row)
	return nil
}

func (s *InMemory) ListPending(ctx context.Context, limit int) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []Row
	for _, row := range s.rows {
		if row.Status != StatusPending {
			continue
		}
		pending = append(pending, row)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *InMemory) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, id := range ids {
		for i := range s.rows {
			if s.rows[i].ID == id {
				s.rows[i].Status = StatusPublished
				s.rows[i].PublishedAt = &now
			}
		}
	}
	return nil
}
