package organization

import (
	"context"
	"errors"

	"trustbase/internal/access"
	dErrors "trustbase/pkg/domain-errors"
	"trustbase/pkg/platform/sentinel"
)

// AccessLister reads the caller's current permission state so the catalog
// listing can carry it.
type AccessLister interface {
	ListByPrincipal(ctx context.Context, principalID string) ([]access.Grant, error)
}

// CreateRequest is the payload for registering a new organization.
type CreateRequest struct {
	Name             string `json:"name"`
	LogoURL          string `json:"logo_url"`
	Category         string `json:"category"`
	DataAccessReason string `json:"data_access_reason"`
	WebsiteURL       string `json:"website_url"`
	ContactEmail     string `json:"contact_email"`
	PrivacyScore     int    `json:"privacy_score"`
}

// Service exposes catalog operations.
type Service struct {
	store  Store
	grants AccessLister
}

func NewService(store Store, grants AccessLister) *Service {
	return &Service{store: store, grants: grants}
}

// Exists reports whether the organization is registered.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "organization store unreachable")
	}
	return exists, nil
}

// Get returns one organization's display metadata.
func (s *Service) Get(ctx context.Context, id string) (Organization, error) {
	org, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Organization{}, dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	if err != nil {
		return Organization{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "organization store unreachable")
	}
	return org, nil
}

// ListForPrincipal returns every organization (name ascending) annotated with
// the caller's current access state.
func (s *Service) ListForPrincipal(ctx context.Context, principalID string) ([]WithAccess, error) {
	orgs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "organization store unreachable")
	}
	grants, err := s.grants.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "access store unreachable")
	}

	byOrg := make(map[string]access.Grant, len(grants))
	for _, grant := range grants {
		byOrg[grant.OrganizationID] = grant
	}

	annotated := make([]WithAccess, 0, len(orgs))
	for _, org := range orgs {
		entry := WithAccess{Organization: org}
		if grant, ok := byOrg[org.ID]; ok {
			entry.AccessGranted = grant.Granted
			entry.GrantedAt = grant.GrantedAt
			entry.RevokedAt = grant.RevokedAt
		}
		annotated = append(annotated, entry)
	}
	return annotated, nil
}

// Create validates and registers a new organization.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Organization, error) {
	if req.Name == "" || req.LogoURL == "" || req.Category == "" || req.DataAccessReason == "" {
		return Organization{}, dErrors.New(dErrors.CodeValidation,
			"missing required fields: name, logo_url, category, data_access_reason")
	}
	score := req.PrivacyScore
	if score == 0 {
		score = DefaultPrivacyScore
	}
	if score < 1 || score > 10 {
		return Organization{}, dErrors.New(dErrors.CodeValidation, "privacy_score must be between 1 and 10")
	}

	org := Organization{
		Name:             req.Name,
		LogoURL:          req.LogoURL,
		Category:         req.Category,
		DataAccessReason: req.DataAccessReason,
		WebsiteURL:       req.WebsiteURL,
		ContactEmail:     req.ContactEmail,
		PrivacyScore:     score,
	}
	if err := s.store.Create(ctx, &org); err != nil {
		return Organization{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "organization store unreachable")
	}
	return org, nil
}
