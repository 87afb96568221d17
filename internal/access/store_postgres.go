package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trustbase/pkg/platform/sentinel"
	txcontext "trustbase/pkg/platform/tx"
)

// Postgres persists grants in the user_data_access table using upsert
// semantics: one row per (principal, organization) pair.
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

func (s *Postgres) Upsert(ctx context.Context, principalID, organizationID string, granted bool, at time.Time) (Grant, error) {
	query := `
		INSERT INTO user_data_access (user_id, organization_id, access_granted, granted_at, revoked_at, updated_at)
		VALUES ($1, $2, $3,
			CASE WHEN $3 THEN $4::timestamptz ELSE NULL END,
			CASE WHEN NOT $3 THEN $4::timestamptz ELSE NULL END,
			$4)
		ON CONFLICT (user_id, organization_id)
		DO UPDATE SET
			access_granted = EXCLUDED.access_granted,
			granted_at = CASE
				WHEN EXCLUDED.access_granted AND (NOT user_data_access.access_granted OR user_data_access.granted_at IS NULL)
					THEN $4::timestamptz
				ELSE user_data_access.granted_at
			END,
			revoked_at = CASE
				WHEN NOT EXCLUDED.access_granted AND (user_data_access.access_granted OR user_data_access.revoked_at IS NULL)
					THEN $4::timestamptz
				ELSE user_data_access.revoked_at
			END,
			updated_at = GREATEST(user_data_access.updated_at + interval '1 microsecond', $4::timestamptz)
		RETURNING user_id, organization_id, access_granted, granted_at, revoked_at, updated_at
	`
	var grant Grant
	err := s.execer(ctx).QueryRowContext(ctx, query, principalID, organizationID, granted, at).Scan(
		&grant.PrincipalID,
		&grant.OrganizationID,
		&grant.Granted,
		&grant.GrantedAt,
		&grant.RevokedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		return Grant{}, fmt.Errorf("upsert grant: %w", err)
	}
	return grant, nil
}

func (s *Postgres) Find(ctx context.Context, principalID, organizationID string) (Grant, error) {
	query := `
		SELECT user_id, organization_id, access_granted, granted_at, revoked_at, updated_at
		FROM user_data_access
		WHERE user_id = $1 AND organization_id = $2
	`
	var grant Grant
	err := s.execer(ctx).QueryRowContext(ctx, query, principalID, organizationID).Scan(
		&grant.PrincipalID,
		&grant.OrganizationID,
		&grant.Granted,
		&grant.GrantedAt,
		&grant.RevokedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Grant{}, sentinel.ErrNotFound
		}
		return Grant{}, fmt.Errorf("find grant: %w", err)
	}
	return grant, nil
}

func (s *Postgres) ListByPrincipal(ctx context.Context, principalID string) ([]Grant, error) {
	query := `
		SELECT user_id, organization_id, access_granted, granted_at, revoked_at, updated_at
		FROM user_data_access
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var grant Grant
		if err := rows.Scan(
			&grant.PrincipalID,
			&grant.OrganizationID,
			&grant.Granted,
			&grant.GrantedAt,
			&grant.RevokedAt,
			&grant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return grants, nil
}

func (s *Postgres) CountGranted(ctx context.Context, principalID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM user_data_access
		WHERE user_id = $1 AND access_granted = true
	`
	var count int
	if err := s.execer(ctx).QueryRowContext(ctx, query, principalID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count granted: %w", err)
	}
	return count, nil
}
