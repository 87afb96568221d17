package timeline

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory keeps usage records in a slice for tests and single-process runs.
type InMemory struct {
	mu      sync.RWMutex
	records []UsageRecord
	nextID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1}
}

func (s *InMemory) Record(ctx context.Context, rec *UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *InMemory) ListByPrincipal(ctx context.Context, principalID string, since time.Time, limit int) ([]UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []UsageRecord
	for _, rec := range s.records {
		if rec.UserID == principalID && !rec.UsageDate.Before(since) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UsageDate.Equal(out[j].UsageDate) {
			return out[i].UsageDate.After(out[j].UsageDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) SummarizeByOrg(ctx context.Context, principalID string) (map[string]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]float64)
	summaries := make(map[string]Summary)
	for _, rec := range s.records {
		if rec.UserID != principalID {
			continue
		}
		summary := summaries[rec.OrganizationID]
		summary.Count++
		usage := rec.UsageDate
		if summary.LastUsage == nil || usage.After(*summary.LastUsage) {
			summary.LastUsage = &usage
		}
		totals[rec.OrganizationID] += rec.DataVolumeScore
		summaries[rec.OrganizationID] = summary
	}
	for orgID, summary := range summaries {
		summary.AvgVolume = totals[orgID] / float64(summary.Count)
		summaries[orgID] = summary
	}
	return summaries, nil
}
