package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"trustbase/pkg/platform/sentinel"
	txcontext "trustbase/pkg/platform/tx"
)

// Postgres persists the chain in the transparency_ledger table.
//
// Appends are expected to run inside a transaction (the coordinator's unit
// of work). Tail locks the current tail row with FOR UPDATE, serializing
// concurrent appenders once the chain is non-empty; the unique index on
// previous_hash (nulls not distinct) closes the empty-chain window, turning
// a concurrent double-append into sentinel.ErrConflict for one of the two.
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

const entryColumns = `id, anonymized_user_id, anonymized_org_id, action_type, timestamp, entry_hash, previous_hash`

func (s *Postgres) Tail(ctx context.Context) (*Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM transparency_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`
	// FOR UPDATE is only meaningful inside a transaction; reads outside one
	// fall back to a plain snapshot, which is fine for the read path.
	if _, inTx := txcontext.From(ctx); !inTx {
		query = `
			SELECT ` + entryColumns + `
			FROM transparency_ledger
			ORDER BY timestamp DESC, id DESC
			LIMIT 1
		`
	}

	var entry Entry
	err := scanEntry(s.execer(ctx).QueryRowContext(ctx, query), &entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chain tail: %w", err)
	}
	return &entry, nil
}

func (s *Postgres) Insert(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO transparency_ledger
			(anonymized_user_id, anonymized_org_id, action_type, timestamp, entry_hash, previous_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		entry.AnonymizedUserID,
		entry.AnonymizedOrgID,
		string(entry.Action),
		entry.Timestamp,
		entry.EntryHash,
		entry.PreviousHash,
	).Scan(&entry.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, limit, offset int) ([]Entry, int64, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM transparency_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM transparency_ledger`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return entries, total, nil
}

func (s *Postgres) ListAscending(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM transparency_ledger
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries ascending: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Postgres) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE action_type = 'granted'),
			COUNT(*) FILTER (WHERE action_type = 'revoked'),
			COUNT(DISTINCT anonymized_user_id),
			COUNT(DISTINCT anonymized_org_id),
			MIN(timestamp),
			MAX(timestamp)
		FROM transparency_ledger
	`
	var stats Stats
	err := s.execer(ctx).QueryRowContext(ctx, query).Scan(
		&stats.TotalEntries,
		&stats.GrantsCount,
		&stats.RevokesCount,
		&stats.UniqueUsers,
		&stats.UniqueOrgs,
		&stats.FirstEntry,
		&stats.LatestEntry,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate ledger stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, entry *Entry) error {
	return row.Scan(
		&entry.ID,
		&entry.AnonymizedUserID,
		&entry.AnonymizedOrgID,
		&entry.Action,
		&entry.Timestamp,
		&entry.EntryHash,
		&entry.PreviousHash,
	)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := scanEntry(rows, &entry); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
