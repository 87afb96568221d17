package ledger

import (
	"context"
	"time"

	"trustbase/internal/platform/metrics"
	dErrors "trustbase/pkg/domain-errors"
)

// DefaultPageLimit bounds unpaginated scans of the public read path.
const DefaultPageLimit = 50

// MaxPageLimit caps a caller-supplied page size.
const MaxPageLimit = 500

// Pagination describes a page of the public ledger.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// ChainIntegrity reports the verification outcome attached to every page.
type ChainIntegrity struct {
	Valid           bool      `json:"valid"`
	FirstBreakIndex *int      `json:"first_break_index,omitempty"`
	VerifiedAt      time.Time `json:"verified_at"`
}

// Page is the full response shape of the public ledger read path.
type Page struct {
	Entries        []Entry        `json:"entries"`
	Pagination     Pagination     `json:"pagination"`
	ChainIntegrity ChainIntegrity `json:"chain_integrity"`
	Statistics     Stats          `json:"statistics"`
}

// Reader serves the paginated public history with on-demand integrity
// verification and aggregate statistics. It never mutates the chain.
type Reader struct {
	store   Store
	metrics *metrics.Metrics
}

func NewReader(store Store, m *metrics.Metrics) *Reader {
	return &Reader{store: store, metrics: m}
}

// List returns one page of entries (most recent first) together with a
// verification of the entire chain and whole-chain statistics. Verification
// failure is reported as data, not as an error: transparency requires
// showing the tamper rather than hiding it behind a failure response.
func (r *Reader) List(ctx context.Context, limit, offset int) (*Page, error) {
	if limit < 0 || offset < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit and offset must be non-negative")
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	entries, total, err := r.store.List(ctx, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger store unreachable")
	}

	chain, err := r.store.ListAscending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger store unreachable")
	}
	report := Verify(chain)
	if report.Valid {
		r.metrics.IncrementVerification("valid")
	} else {
		r.metrics.IncrementVerification("invalid")
	}

	stats, err := r.store.Stats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger store unreachable")
	}

	if entries == nil {
		entries = []Entry{}
	}
	return &Page{
		Entries: entries,
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: int64(offset+limit) < total,
		},
		ChainIntegrity: ChainIntegrity{
			Valid:           report.Valid,
			FirstBreakIndex: report.FirstBreakIndex,
			VerifiedAt:      time.Now().UTC(),
		},
		Statistics: stats,
	}, nil
}
