package timeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Postgres persists usage records in the organization_data_usage table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Record(ctx context.Context, rec *UsageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO organization_data_usage
			(organization_id, user_id, usage_date, data_type, purpose, data_volume_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := s.db.QueryRowContext(ctx, query,
		rec.OrganizationID, rec.UserID, rec.UsageDate, rec.DataType,
		rec.Purpose, rec.DataVolumeScore, rec.CreatedAt).Scan(&rec.ID); err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

func (s *Postgres) ListByPrincipal(ctx context.Context, principalID string, since time.Time, limit int) ([]UsageRecord, error) {
	query := `
		SELECT id, organization_id, user_id, usage_date, data_type, purpose, data_volume_score, created_at
		FROM organization_data_usage
		WHERE user_id = $1 AND usage_date >= $2
		ORDER BY usage_date DESC, created_at DESC
		LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, principalID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		var rec UsageRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.UserID, &rec.UsageDate,
			&rec.DataType, &rec.Purpose, &rec.DataVolumeScore, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Postgres) SummarizeByOrg(ctx context.Context, principalID string) (map[string]Summary, error) {
	query := `
		SELECT organization_id, COUNT(*), MAX(usage_date), AVG(data_volume_score)
		FROM organization_data_usage
		WHERE user_id = $1
		GROUP BY organization_id`
	rows, err := s.db.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("summarize usage records: %w", err)
	}
	defer rows.Close()

	summaries := make(map[string]Summary)
	for rows.Next() {
		var (
			orgID   string
			summary Summary
			last    time.Time
		)
		if err := rows.Scan(&orgID, &summary.Count, &last, &summary.AvgVolume); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summary.LastUsage = &last
		summaries[orgID] = summary
	}
	return summaries, rows.Err()
}
