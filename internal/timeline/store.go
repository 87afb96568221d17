package timeline

import (
	"context"
	"time"
)

// Summary is the per-organization aggregate of one principal's usage rows.
type Summary struct {
	Count     int
	LastUsage *time.Time
	AvgVolume float64
}

// UsageStore persists and aggregates organization data-usage records.
type UsageStore interface {
	Record(ctx context.Context, rec *UsageRecord) error
	ListByPrincipal(ctx context.Context, principalID string, since time.Time, limit int) ([]UsageRecord, error)
	SummarizeByOrg(ctx context.Context, principalID string) (map[string]Summary, error)
}
