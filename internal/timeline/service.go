package timeline

import (
	"context"
	"sort"
	"time"

	"trustbase/internal/access"
	"trustbase/internal/organization"
	dErrors "trustbase/pkg/domain-errors"
)

// activityWindow bounds the recent-activity feed.
const activityWindow = 90 * 24 * time.Hour

// activityLimit caps the recent-activity feed length.
const activityLimit = 100

// AccessLister reads the caller's permission state for annotation.
type AccessLister interface {
	ListByPrincipal(ctx context.Context, principalID string) ([]access.Grant, error)
}

// CatalogLister reads the full organization catalog.
type CatalogLister interface {
	List(ctx context.Context) ([]organization.Organization, error)
}

// Service composes the usage store, catalog, and permission state into the
// timeline view.
type Service struct {
	usage   UsageStore
	catalog CatalogLister
	grants  AccessLister
	now     func() time.Time
}

func NewService(usage UsageStore, catalog CatalogLister, grants AccessLister) *Service {
	return &Service{usage: usage, catalog: catalog, grants: grants, now: time.Now}
}

// View builds the caller's timeline: every organization with its usage
// summary, plus the last 90 days of activity.
func (s *Service) View(ctx context.Context, principalID string) (*View, error) {
	if principalID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}

	orgs, err := s.catalog.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "organization store unreachable")
	}
	grants, err := s.grants.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "access store unreachable")
	}
	summaries, err := s.usage.SummarizeByOrg(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "usage store unreachable")
	}

	grantedByOrg := make(map[string]bool, len(grants))
	for _, grant := range grants {
		grantedByOrg[grant.OrganizationID] = grant.Granted
	}

	orgByID := make(map[string]organization.Organization, len(orgs))
	summarized := make([]OrgSummary, 0, len(orgs))
	active := 0
	for _, org := range orgs {
		orgByID[org.ID] = org
		summary := summaries[org.ID]
		if summary.Count > 0 {
			active++
		}
		summarized = append(summarized, OrgSummary{
			OrganizationID: org.ID,
			Name:           org.Name,
			LogoURL:        org.LogoURL,
			Category:       org.Category,
			PrivacyScore:   org.PrivacyScore,
			AccessGranted:  grantedByOrg[org.ID],
			UsageCount:     summary.Count,
			LastUsageDate:  summary.LastUsage,
			AvgDataVolume:  summary.AvgVolume,
			ActivityLevel:  LevelFor(summary.Count),
		})
	}
	// Busiest organizations first, name as the tie-break.
	sort.SliceStable(summarized, func(i, j int) bool {
		if summarized[i].UsageCount != summarized[j].UsageCount {
			return summarized[i].UsageCount > summarized[j].UsageCount
		}
		return summarized[i].Name < summarized[j].Name
	})

	since := s.now().UTC().Add(-activityWindow)
	records, err := s.usage.ListByPrincipal(ctx, principalID, since, activityLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "usage store unreachable")
	}
	activity := make([]Activity, 0, len(records))
	for _, rec := range records {
		org := orgByID[rec.OrganizationID]
		activity = append(activity, Activity{
			UsageRecord:      rec,
			OrganizationName: org.Name,
			LogoURL:          org.LogoURL,
			Category:         org.Category,
		})
	}

	return &View{
		Organizations:       summarized,
		RecentActivity:      activity,
		TotalOrganizations:  len(summarized),
		ActiveOrganizations: active,
	}, nil
}
