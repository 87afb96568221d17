//go:build integration

package organization_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustbase/internal/organization"
	platformredis "trustbase/internal/platform/redis"
	"trustbase/pkg/platform/sentinel"
	"trustbase/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	store  *organization.InMemory
	cached *organization.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.store = organization.NewInMemory()
	s.cached = organization.NewCachedStore(
		s.store,
		&platformredis.Client{Client: s.redis.Client},
		time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func (s *CachedStoreSuite) seed(id, name string) organization.Organization {
	org := organization.Organization{
		ID:               id,
		Name:             name,
		LogoURL:          "https://example.com/logo.png",
		Category:         "Finance",
		DataAccessReason: "Account verification",
		PrivacyScore:     organization.DefaultPrivacyScore,
		CreatedAt:        time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(context.Background(), &org))
	return org
}

func (s *CachedStoreSuite) TestGetPopulatesCache() {
	ctx := context.Background()
	seeded := s.seed("org-1", "Acme Bank")

	got, err := s.cached.Get(ctx, "org-1")
	s.Require().NoError(err)
	s.Equal(seeded.Name, got.Name)

	exists, err := s.redis.Client.Exists(ctx, "org:org-1").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
}

func (s *CachedStoreSuite) TestGetServesFromCacheAfterStoreLosesRow() {
	ctx := context.Background()
	s.seed("org-1", "Acme Bank")

	_, err := s.cached.Get(ctx, "org-1")
	s.Require().NoError(err)

	// A fresh empty store stands in for a backend that no longer has the
	// row; the cached copy must still answer.
	s.cached = organization.NewCachedStore(
		organization.NewInMemory(),
		&platformredis.Client{Client: s.redis.Client},
		time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	got, err := s.cached.Get(ctx, "org-1")
	s.Require().NoError(err)
	s.Equal("Acme Bank", got.Name)
}

func (s *CachedStoreSuite) TestGetMissFallsThrough() {
	_, err := s.cached.Get(context.Background(), "org-missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestExistsUsesCacheOnlyPositively() {
	ctx := context.Background()
	s.seed("org-1", "Acme Bank")

	// Not cached yet: Exists must consult the store, not trust the miss.
	ok, err := s.cached.Exists(ctx, "org-1")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.cached.Exists(ctx, "org-missing")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *CachedStoreSuite) TestCreateInvalidatesStaleEntry() {
	ctx := context.Background()
	s.seed("org-1", "Acme Bank")

	_, err := s.cached.Get(ctx, "org-1")
	s.Require().NoError(err)

	fresh := organization.Organization{
		ID:               "org-1",
		Name:             "Acme Bank Renamed",
		LogoURL:          "https://example.com/logo.png",
		Category:         "Finance",
		DataAccessReason: "Account verification",
		PrivacyScore:     organization.DefaultPrivacyScore,
		CreatedAt:        time.Now().UTC(),
	}
	// Bypass the memory store's duplicate check by starting clean, then
	// create through the cache so invalidation runs.
	s.cached = organization.NewCachedStore(
		organization.NewInMemory(),
		&platformredis.Client{Client: s.redis.Client},
		time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	s.Require().NoError(s.cached.Create(ctx, &fresh))

	got, err := s.cached.Get(ctx, "org-1")
	s.Require().NoError(err)
	s.Equal("Acme Bank Renamed", got.Name)
}
