package organization

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustbase/internal/access"
	dErrors "trustbase/pkg/domain-errors"
)

type CatalogSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemory
	grants  *access.InMemory
	service *Service
}

func (s *CatalogSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.grants = access.NewInMemory()
	s.service = NewService(s.store, s.grants)
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) createOrg(name string) Organization {
	org, err := s.service.Create(s.ctx, CreateRequest{
		Name:             name,
		LogoURL:          "https://cdn.example.com/" + name + ".png",
		Category:         "analytics",
		DataAccessReason: "usage analytics",
	})
	s.Require().NoError(err)
	return org
}

func (s *CatalogSuite) TestCreateAssignsIDAndDefaultScore() {
	org := s.createOrg("Acme")
	s.NotEmpty(org.ID)
	s.Equal(DefaultPrivacyScore, org.PrivacyScore)
	s.False(org.CreatedAt.IsZero())
}

func (s *CatalogSuite) TestCreateRejectsMissingFields() {
	_, err := s.service.Create(s.ctx, CreateRequest{Name: "Acme"})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *CatalogSuite) TestCreateRejectsScoreOutOfRange() {
	_, err := s.service.Create(s.ctx, CreateRequest{
		Name:             "Acme",
		LogoURL:          "https://cdn.example.com/acme.png",
		Category:         "analytics",
		DataAccessReason: "usage analytics",
		PrivacyScore:     11,
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *CatalogSuite) TestExists() {
	org := s.createOrg("Acme")

	exists, err := s.service.Exists(s.ctx, org.ID)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.service.Exists(s.ctx, "missing")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *CatalogSuite) TestGetNotFound() {
	_, err := s.service.Get(s.ctx, "missing")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *CatalogSuite) TestListForPrincipalAnnotatesAccess() {
	granted := s.createOrg("Alpha")
	revoked := s.createOrg("Beta")
	s.createOrg("Gamma")

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := s.grants.Upsert(s.ctx, "user-1", granted.ID, true, at)
	s.Require().NoError(err)
	_, err = s.grants.Upsert(s.ctx, "user-1", revoked.ID, true, at)
	s.Require().NoError(err)
	_, err = s.grants.Upsert(s.ctx, "user-1", revoked.ID, false, at.Add(time.Hour))
	s.Require().NoError(err)

	listed, err := s.service.ListForPrincipal(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(listed, 3)

	s.Equal("Alpha", listed[0].Name)
	s.True(listed[0].AccessGranted)
	s.Require().NotNil(listed[0].GrantedAt)

	s.Equal("Beta", listed[1].Name)
	s.False(listed[1].AccessGranted)
	s.Require().NotNil(listed[1].RevokedAt)
	s.Require().NotNil(listed[1].GrantedAt, "granted_at survives a revoke")

	s.Equal("Gamma", listed[2].Name)
	s.False(listed[2].AccessGranted)
	s.Nil(listed[2].GrantedAt)
}

func (s *CatalogSuite) TestListForPrincipalIgnoresOtherPrincipals() {
	org := s.createOrg("Alpha")
	_, err := s.grants.Upsert(s.ctx, "someone-else", org.ID, true, time.Now())
	s.Require().NoError(err)

	listed, err := s.service.ListForPrincipal(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.False(listed[0].AccessGranted)
}
