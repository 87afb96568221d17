// Package transition coordinates a permission change: one atomic unit that
// upserts the permission state and appends the matching ledger entry. The
// two never diverge: either both persist or neither does.
package transition

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustbase/internal/access"
	"trustbase/internal/anonymizer"
	"trustbase/internal/ledger"
	"trustbase/internal/ledger/outbox"
	"trustbase/internal/organization"
	"trustbase/internal/platform/metrics"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/sentinel"
)

// appendAttempts bounds retries of the whole atomic unit after a lost
// serialization race. Every committed peer costs a waiting unit at most one
// retry (on the chain tail or on a label sequence), so the bound caps how
// many concurrent writers a unit can outlast.
const appendAttempts = 64

// Tx runs fn inside one transaction. Implementations carry the transaction
// in the context so the stores underneath participate in it.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Resolver maps real identifiers to stable anonymized labels.
type Resolver interface {
	Resolve(ctx context.Context, kind anonymizer.EntityKind, realID string) (anonymizer.Label, error)
}

// Catalog validates organization references and serves display metadata for
// the authenticated permissions view.
type Catalog interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (organization.Organization, error)
}

// Result is the response shape of a successful transition.
type Result struct {
	Message           string        `json:"message"`
	AccessRecord      access.Grant  `json:"access_record"`
	TransparencyEntry *ledger.Entry `json:"transparency_entry"`
}

// Permission is one grant joined with its organization's display metadata.
type Permission struct {
	access.Grant
	OrganizationName string `json:"organization_name"`
	LogoURL          string `json:"logo_url"`
	Category         string `json:"category"`
	DataAccessReason string `json:"data_access_reason"`
	PrivacyScore     int    `json:"privacy_score"`
}

// PermissionsView is the response shape of the authenticated read path.
type PermissionsView struct {
	Permissions  []Permission `json:"permissions"`
	GrantedCount int          `json:"granted_count"`
}

// Service is the transition coordinator.
type Service struct {
	tx      Tx
	labels  Resolver
	grants  access.Store
	chain   *ledger.Appender
	outbox  outbox.Store
	catalog Catalog
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a transition Service. The outbox store may be nil when
// no event stream is configured.
func NewService(
	tx Tx,
	labels Resolver,
	grants access.Store,
	chain *ledger.Appender,
	outboxStore outbox.Store,
	catalog Catalog,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		tx:      tx,
		labels:  labels,
		grants:  grants,
		chain:   chain,
		outbox:  outboxStore,
		catalog: catalog,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Transition applies one permission change for (principalID, organizationID)
// and records it. All steps run inside one transaction; a lost race on the
// chain tail retries the whole unit against the new tail.
func (s *Service) Transition(ctx context.Context, principalID, organizationID string, desiredGranted bool) (*Result, error) {
	if principalID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	if organizationID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "organization_id is required")
	}

	action := ledger.ActionRevoked
	if desiredGranted {
		action = ledger.ActionGranted
	}

	var (
		record access.Grant
		entry  *ledger.Entry
		err    error
	)
	unit := func(ctx context.Context) error {
		// Validated inside the unit so the reference holds for the
		// duration of the transaction, not just at entry.
		exists, err := s.catalog.Exists(ctx, organizationID)
		if err != nil {
			return err
		}
		if !exists {
			return dErrors.New(dErrors.CodeNotFound, "organization not found")
		}

		userLabel, err := s.labels.Resolve(ctx, anonymizer.EntityKindUser, principalID)
		if err != nil {
			return err
		}
		orgLabel, err := s.labels.Resolve(ctx, anonymizer.EntityKindOrg, organizationID)
		if err != nil {
			return err
		}

		at := s.now().UTC()
		record, err = s.grants.Upsert(ctx, principalID, organizationID, desiredGranted, at)
		if err != nil {
			return err
		}
		entry, err = s.chain.Append(ctx, userLabel.String(), orgLabel.String(), action, at)
		if err != nil {
			return err
		}
		if s.outbox != nil {
			return outbox.EnqueueEntry(ctx, s.outbox, entry)
		}
		return nil
	}

	for attempt := 0; attempt < appendAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, unit)
		if err == nil {
			s.metrics.IncrementTransition(string(action))
			return &Result{
				Message:           actionMessage(desiredGranted),
				AccessRecord:      record,
				TransparencyEntry: entry,
			}, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
		// A concurrent unit extended the chain or claimed the label
		// sequence first; rerun against fresh state.
		s.metrics.IncrementAppendConflict()
		s.logger.WarnContext(ctx, "transition lost a serialization race, retrying",
			"attempt", attempt+1,
		)
	}

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return nil, err
	}
	return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "transition could not be recorded")
}

func actionMessage(granted bool) string {
	if granted {
		return "Access granted"
	}
	return "Access revoked"
}

// Permissions returns the caller's current grants joined with organization
// display metadata, most recently updated first.
func (s *Service) Permissions(ctx context.Context, principalID string) (*PermissionsView, error) {
	if principalID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	grants, err := s.grants.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "access store unreachable")
	}

	permissions := make([]Permission, 0, len(grants))
	grantedCount := 0
	for _, grant := range grants {
		org, err := s.catalog.Get(ctx, grant.OrganizationID)
		if err != nil {
			return nil, err
		}
		if grant.Granted {
			grantedCount++
		}
		permissions = append(permissions, Permission{
			Grant:            grant,
			OrganizationName: org.Name,
			LogoURL:          org.LogoURL,
			Category:         org.Category,
			DataAccessReason: org.DataAccessReason,
			PrivacyScore:     org.PrivacyScore,
		})
	}
	return &PermissionsView{Permissions: permissions, GrantedCount: grantedCount}, nil
}
