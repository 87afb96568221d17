package anonymizer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"trustbase/pkg/platform/sentinel"
	txcontext "trustbase/pkg/platform/tx"
)

// Postgres persists label assignments in the anonymized_identities table.
// Uniqueness on (entity_kind, real_id) and (entity_kind, sequence) makes
// concurrent allocation safe: a lost race surfaces as sentinel.ErrConflict
// and the service re-reads the winner's label.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) querier(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Find(ctx context.Context, kind EntityKind, realID string) (Label, error) {
	query := `
		SELECT sequence FROM anonymized_identities
		WHERE entity_kind = $1 AND real_id = $2
	`
	var sequence int64
	err := s.querier(ctx).QueryRowContext(ctx, query, string(kind), realID).Scan(&sequence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Label{}, sentinel.ErrNotFound
		}
		return Label{}, fmt.Errorf("find anonymized label: %w", err)
	}
	return Label{Kind: kind, Sequence: sequence}, nil
}

func (s *Postgres) Assign(ctx context.Context, kind EntityKind, realID string) (Label, error) {
	// The sequence is derived from the current maximum inside the insert
	// itself; a concurrent allocation of the same sequence (or of the same
	// real ID) violates a unique constraint and the caller retries.
	query := `
		INSERT INTO anonymized_identities (entity_kind, real_id, sequence)
		SELECT $1, $2, COALESCE(MAX(sequence), 0) + 1
		FROM anonymized_identities
		WHERE entity_kind = $1
		RETURNING sequence
	`
	var sequence int64
	err := s.querier(ctx).QueryRowContext(ctx, query, string(kind), realID).Scan(&sequence)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return Label{}, sentinel.ErrConflict
		}
		return Label{}, fmt.Errorf("assign anonymized label: %w", err)
	}
	return Label{Kind: kind, Sequence: sequence}, nil
}
