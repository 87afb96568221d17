package anonymizer

import (
	"context"
	"sync"

	"trustbase/pkg/platform/sentinel"
)

type key struct {
	kind   EntityKind
	realID string
}

// InMemory keeps label assignments in a map. A single mutex serializes
// allocation, so Assign can never hand out the same sequence twice.
type InMemory struct {
	mu     sync.Mutex
	labels map[key]Label
	next   map[EntityKind]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		labels: make(map[key]Label),
		next:   make(map[EntityKind]int64),
	}
}

func (s *InMemory) Find(ctx context.Context, kind EntityKind, realID string) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label, ok := s.labels[key{kind: kind, realID: realID}]
	if !ok {
		return Label{}, sentinel.ErrNotFound
	}
	return label, nil
}

func (s *InMemory) Assign(ctx context.Context, kind EntityKind, realID string) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{kind: kind, realID: realID}
	if _, ok := s.labels[k]; ok {
		return Label{}, sentinel.ErrConflict
	}

	s.next[kind]++
	label := Label{Kind: kind, Sequence: s.next[kind]}
	s.labels[k] = label
	return label, nil
}
