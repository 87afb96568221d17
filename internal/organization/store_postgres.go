package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustbase/pkg/platform/sentinel"
)

// Postgres persists the catalog in the organizations table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const orgColumns = `id, name, logo_url, category, data_access_reason,
	COALESCE(website_url, ''), COALESCE(contact_email, ''), privacy_score, created_at`

func (s *Postgres) Create(ctx context.Context, org *Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO organizations
			(id, name, logo_url, category, data_access_reason, website_url, contact_email, privacy_score, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`
	if _, err := s.db.ExecContext(ctx, query,
		org.ID, org.Name, org.LogoURL, org.Category, org.DataAccessReason,
		org.WebsiteURL, org.ContactEmail, org.PrivacyScore, org.CreatedAt); err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id string) (Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`

	var org Organization
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.LogoURL, &org.Category, &org.DataAccessReason,
		&org.WebsiteURL, &org.ContactEmail, &org.PrivacyScore, &org.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Organization{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Organization{}, fmt.Errorf("select organization: %w", err)
	}
	return org, nil
}

func (s *Postgres) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organization existence: %w", err)
	}
	return exists, nil
}

func (s *Postgres) List(ctx context.Context) ([]Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(
			&org.ID, &org.Name, &org.LogoURL, &org.Category, &org.DataAccessReason,
			&org.WebsiteURL, &org.ContactEmail, &org.PrivacyScore, &org.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
