package anonymizer

import (
	"context"
	"errors"

	"trustbase/internal/platform/metrics"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/sentinel"
	txcontext "trustbase/pkg/platform/tx"
)

// resolveAttempts bounds the get-or-create loop. A lost race on the same key
// settles on the next read, but racing allocators of distinct keys can keep
// colliding on the sequence, so the bound is generous.
const resolveAttempts = 10

// Service implements the get-or-create contract over a Store. Resolve is a
// pure function of its inputs: the same (kind, real ID) pair always yields
// the same label, and a label is assigned at most once per pair even under
// concurrent callers.
type Service struct {
	store   Store
	metrics *metrics.Metrics
}

func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m}
}

// Resolve returns the label for (kind, realID), assigning the next unused
// sequence on first reference. It never fabricates a label: infrastructure
// failure surfaces as a storage error.
func (s *Service) Resolve(ctx context.Context, kind EntityKind, realID string) (Label, error) {
	if !kind.Valid() {
		return Label{}, dErrors.New(dErrors.CodeValidation, "unknown entity kind")
	}
	if realID == "" {
		return Label{}, dErrors.New(dErrors.CodeValidation, "real identifier is required")
	}

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		label, err := s.store.Find(ctx, kind, realID)
		if err == nil {
			return label, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Label{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "anonymizer store unreachable")
		}

		label, err = s.store.Assign(ctx, kind, realID)
		if err == nil {
			s.metrics.IncrementLabelAssigned(string(kind))
			return label, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// Inside a caller-owned transaction the failed insert has
			// already aborted it; every further statement would fail. Hand
			// the conflict back so the caller retries its whole unit on a
			// fresh transaction.
			if _, inTx := txcontext.From(ctx); inTx {
				return Label{}, err
			}
			// Another writer assigned concurrently; re-read their label.
			continue
		}
		return Label{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "anonymizer store unreachable")
	}

	return Label{}, dErrors.New(dErrors.CodeUnavailable, "label allocation kept losing races")
}
