package ledger

import (
	"context"
	"sort"
	"sync"

	"trustbase/pkg/platform/sentinel"
)

// InMemory keeps the chain in an ordered slice. It enforces the same
// no-fork constraint as the postgres schema: inserting an entry whose
// previous_hash is already referenced fails with sentinel.ErrConflict.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1}
}

func (s *InMemory) Tail(ctx context.Context) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil
	}
	tail := s.entries[s.tailIndex()]
	return &tail, nil
}

// tailIndex finds the entry with the greatest (timestamp, id).
func (s *InMemory) tailIndex() int {
	idx := 0
	for i := 1; i < len(s.entries); i++ {
		a, b := s.entries[i], s.entries[idx]
		if a.Timestamp.After(b.Timestamp) || (a.Timestamp.Equal(b.Timestamp) && a.ID > b.ID) {
			idx = i
		}
	}
	return idx
}

func (s *InMemory) Insert(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries {
		if samePrev(existing.PreviousHash, entry.PreviousHash) {
			return sentinel.ErrConflict
		}
	}

	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, *entry)
	return nil
}

func samePrev(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *InMemory) List(ctx context.Context, limit, offset int) ([]Entry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedAscending()
	// Reverse to total order descending.
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}

	total := int64(len(sorted))
	if offset >= len(sorted) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	page := make([]Entry, end-offset)
	copy(page, sorted[offset:end])
	return page, total, nil
}

func (s *InMemory) ListAscending(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedAscending(), nil
}

func (s *InMemory) sortedAscending() []Entry {
	sorted := make([]Entry, len(s.entries))
	copy(sorted, s.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func (s *InMemory) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalEntries: int64(len(s.entries))}
	users := make(map[string]struct{})
	orgs := make(map[string]struct{})

	for _, e := range s.entries {
		switch e.Action {
		case ActionGranted:
			stats.GrantsCount++
		case ActionRevoked:
			stats.RevokesCount++
		}
		users[e.AnonymizedUserID] = struct{}{}
		orgs[e.AnonymizedOrgID] = struct{}{}

		ts := e.Timestamp
		if stats.FirstEntry == nil || ts.Before(*stats.FirstEntry) {
			first := ts
			stats.FirstEntry = &first
		}
		if stats.LatestEntry == nil || ts.After(*stats.LatestEntry) {
			latest := ts
			stats.LatestEntry = &latest
		}
	}

	stats.UniqueUsers = int64(len(users))
	stats.UniqueOrgs = int64(len(orgs))
	return stats, nil
}

// Tamper overwrites a stored entry in place. Only tests use it, to simulate
// post-hoc modification of history.
func (s *InMemory) Tamper(id int64, mutate func(*Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			mutate(&s.entries[i])
			return true
		}
	}
	return false
}
