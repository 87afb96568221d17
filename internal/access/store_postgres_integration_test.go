//go:build integration

package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trustbase/internal/access"
	"trustbase/internal/organization"
	"trustbase/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *access.Postgres
	orgs     *organization.Postgres
	orgID    string
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = access.NewPostgres(s.postgres.DB)
	s.orgs = organization.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "user_data_access", "organizations")
	s.Require().NoError(err)

	org := organization.Organization{
		Name:             "Acme",
		LogoURL:          "https://cdn.example.com/acme.png",
		Category:         "analytics",
		DataAccessReason: "usage analytics",
		PrivacyScore:     7,
	}
	s.Require().NoError(s.orgs.Create(ctx, &org))
	s.orgID = org.ID
}

func (s *PostgresStoreSuite) TestGrantThenRevokeKeepsGrantedAt() {
	ctx := context.Background()
	userID := uuid.NewString()
	t1 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	granted, err := s.store.Upsert(ctx, userID, s.orgID, true, t1)
	s.Require().NoError(err)
	s.True(granted.Granted)
	s.Require().NotNil(granted.GrantedAt)
	s.True(granted.GrantedAt.Equal(t1))
	s.Nil(granted.RevokedAt)

	revoked, err := s.store.Upsert(ctx, userID, s.orgID, false, t2)
	s.Require().NoError(err)
	s.False(revoked.Granted)
	s.Require().NotNil(revoked.RevokedAt)
	s.True(revoked.RevokedAt.Equal(t2))
	s.Require().NotNil(revoked.GrantedAt)
	s.True(revoked.GrantedAt.Equal(t1), "granted_at survives the revoke")
}

func (s *PostgresStoreSuite) TestRegrantKeepsOriginalGrantedAt() {
	ctx := context.Background()
	userID := uuid.NewString()
	t1 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.store.Upsert(ctx, userID, s.orgID, true, t1)
	s.Require().NoError(err)
	again, err := s.store.Upsert(ctx, userID, s.orgID, true, t1.Add(time.Hour))
	s.Require().NoError(err)

	s.Require().NotNil(again.GrantedAt)
	s.True(again.GrantedAt.Equal(t1), "re-grant does not move granted_at")
}

func (s *PostgresStoreSuite) TestOneRowPerPair() {
	ctx := context.Background()
	userID := uuid.NewString()

	for i := 0; i < 5; i++ {
		_, err := s.store.Upsert(ctx, userID, s.orgID, i%2 == 0, time.Now().UTC())
		s.Require().NoError(err)
	}

	grants, err := s.store.ListByPrincipal(ctx, userID)
	s.Require().NoError(err)
	s.Len(grants, 1)
}

func (s *PostgresStoreSuite) TestUpdatedAtMonotonicUnderClockSkew() {
	ctx := context.Background()
	userID := uuid.NewString()
	t1 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	first, err := s.store.Upsert(ctx, userID, s.orgID, true, t1)
	s.Require().NoError(err)

	// A second transition stamped earlier must still advance updated_at.
	second, err := s.store.Upsert(ctx, userID, s.orgID, false, t1.Add(-time.Minute))
	s.Require().NoError(err)
	s.True(second.UpdatedAt.After(first.UpdatedAt))
}

func (s *PostgresStoreSuite) TestCountGranted() {
	ctx := context.Background()
	userID := uuid.NewString()

	other := organization.Organization{
		Name:             "Beta",
		LogoURL:          "https://cdn.example.com/beta.png",
		Category:         "fintech",
		DataAccessReason: "credit scoring",
		PrivacyScore:     6,
	}
	s.Require().NoError(s.orgs.Create(ctx, &other))

	_, err := s.store.Upsert(ctx, userID, s.orgID, true, time.Now().UTC())
	s.Require().NoError(err)
	_, err = s.store.Upsert(ctx, userID, other.ID, true, time.Now().UTC())
	s.Require().NoError(err)
	_, err = s.store.Upsert(ctx, userID, other.ID, false, time.Now().UTC())
	s.Require().NoError(err)

	count, err := s.store.CountGranted(ctx, userID)
	s.Require().NoError(err)
	s.Equal(1, count)
}
