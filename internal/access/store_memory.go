package access

import (
	"context"
	"sort"
	"sync"
	"time"

	"trustbase/pkg/platform/sentinel"
)

type pairKey struct {
	principalID    string
	organizationID string
}

// InMemory keeps grants in a map keyed by (principal, organization).
type InMemory struct {
	mu     sync.RWMutex
	grants map[pairKey]Grant
}

func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[pairKey]Grant)}
}

func (s *InMemory) Upsert(ctx context.Context, principalID, organizationID string, granted bool, at time.Time) (Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{principalID: principalID, organizationID: organizationID}
	prev, exists := s.grants[k]

	grant := prev
	if !exists {
		grant = Grant{PrincipalID: principalID, OrganizationID: organizationID}
	}
	grant.Granted = granted

	if granted {
		// Re-granting an already-granted pair keeps the original granted_at.
		if !exists || !prev.Granted || prev.GrantedAt == nil {
			grantedAt := at
			grant.GrantedAt = &grantedAt
		}
	} else {
		if !exists || prev.Granted || prev.RevokedAt == nil {
			revokedAt := at
			grant.RevokedAt = &revokedAt
		}
	}

	// updated_at never moves backwards even if the caller's clock does.
	if exists && !at.After(prev.UpdatedAt) {
		grant.UpdatedAt = prev.UpdatedAt.Add(time.Nanosecond)
	} else {
		grant.UpdatedAt = at
	}

	s.grants[k] = grant
	return grant, nil
}

func (s *InMemory) Find(ctx context.Context, principalID, organizationID string) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, ok := s.grants[pairKey{principalID: principalID, organizationID: organizationID}]
	if !ok {
		return Grant{}, sentinel.ErrNotFound
	}
	return grant, nil
}

func (s *InMemory) ListByPrincipal(ctx context.Context, principalID string) ([]Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Grant
	for k, grant := range s.grants {
		if k.principalID == principalID {
			out = append(out, grant)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *InMemory) CountGranted(ctx context.Context, principalID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for k, grant := range s.grants {
		if k.principalID == principalID && grant.Granted {
			count++
		}
	}
	return count, nil
}
