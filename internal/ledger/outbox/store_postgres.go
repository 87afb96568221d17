package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	txcontext "trustbase/pkg/platform/tx"
)

// Postgres persists outbox rows in the ledger_outbox table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Enqueue(ctx context.Context, row *Row) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = StatusPending
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ledger_outbox (id, entry_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		row.ID, row.EntryID, row.Payload, row.Status, row.CreatedAt); err != nil {
		return fmt.Errorf("enqueue outbox row: %w", err)
	}
	return nil
}

func (s *Postgres) ListPending(ctx context.Context, limit int) ([]Row, error) {
	query := `
		SELECT id, entry_id, payload, status, created_at, published_at
		FROM ledger_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`
	rows, err := s.execer(ctx).QueryContext(ctx, query, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox rows: %w", err)
	}
	defer rows.Close()

	var pending []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.EntryID, &row.Payload,
			&row.Status, &row.CreatedAt, &row.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, row)
	}
	return pending, rows.Err()
}

func (s *Postgres) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `
		UPDATE ledger_outbox
		SET status = $1, published_at = $2
		WHERE id = ANY($3)`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		StatusPublished, time.Now().UTC(), pq.Array(raw)); err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}
	return nil
}
