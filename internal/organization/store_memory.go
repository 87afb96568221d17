package organization

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustbase/pkg/platform/sentinel"
)

// InMemory keeps the catalog in a map for tests and single-process runs.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[string]Organization
}

func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[string]Organization)}
}

func (s *InMemory) Create(ctx context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.orgs[org.ID]; exists {
		return sentinel.ErrConflict
	}
	s.orgs[org.ID] = *org
	return nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return Organization{}, sentinel.ErrNotFound
	}
	return org, nil
}

func (s *InMemory) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.orgs[id]
	return ok, nil
}

func (s *InMemory) List(ctx context.Context) ([]Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgs := make([]Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		orgs = append(orgs, org)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}
