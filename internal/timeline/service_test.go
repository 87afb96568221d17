package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"trustbase/internal/access"
	"trustbase/internal/organization"
	dErrors "trustbase/pkg/domain-errors"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, ActivityLow, LevelFor(0))
	assert.Equal(t, ActivityLow, LevelFor(5))
	assert.Equal(t, ActivityMedium, LevelFor(6))
	assert.Equal(t, ActivityMedium, LevelFor(20))
	assert.Equal(t, ActivityHigh, LevelFor(21))
}

type TimelineSuite struct {
	suite.Suite
	ctx     context.Context
	usage   *InMemory
	orgs    *organization.InMemory
	grants  *access.InMemory
	service *Service
	now     time.Time
}

func (s *TimelineSuite) SetupTest() {
	s.ctx = context.Background()
	s.usage = NewInMemory()
	s.orgs = organization.NewInMemory()
	s.grants = access.NewInMemory()
	s.service = NewService(s.usage, s.orgs, s.grants)
	s.now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.now }
}

func TestTimelineSuite(t *testing.T) {
	suite.Run(t, new(TimelineSuite))
}

func (s *TimelineSuite) registerOrg(name string) organization.Organization {
	org := organization.Organization{
		Name:             name,
		LogoURL:          "https://cdn.example.com/" + name + ".png",
		Category:         "analytics",
		DataAccessReason: "usage analytics",
		PrivacyScore:     7,
	}
	s.Require().NoError(s.orgs.Create(s.ctx, &org))
	return org
}

func (s *TimelineSuite) recordUsage(orgID string, daysAgo int, volume float64) {
	s.Require().NoError(s.usage.Record(s.ctx, &UsageRecord{
		OrganizationID:  orgID,
		UserID:          "user-1",
		UsageDate:       s.now.AddDate(0, 0, -daysAgo),
		DataType:        "profile",
		Purpose:         "analytics",
		DataVolumeScore: volume,
	}))
}

func (s *TimelineSuite) TestViewRequiresPrincipal() {
	_, err := s.service.View(s.ctx, "")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *TimelineSuite) TestViewEmpty() {
	view, err := s.service.View(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(view.Organizations)
	s.Empty(view.RecentActivity)
	s.Equal(0, view.TotalOrganizations)
	s.Equal(0, view.ActiveOrganizations)
}

func (s *TimelineSuite) TestViewSummarizesPerOrganization() {
	busy := s.registerOrg("Busy")
	quiet := s.registerOrg("Quiet")
	s.registerOrg("Silent")

	for i := 0; i < 7; i++ {
		s.recordUsage(busy.ID, i, 4)
	}
	s.recordUsage(quiet.ID, 1, 8)

	_, err := s.grants.Upsert(s.ctx, "user-1", busy.ID, true, s.now)
	s.Require().NoError(err)

	view, err := s.service.View(s.ctx, "user-1")
	s.Require().NoError(err)

	s.Equal(3, view.TotalOrganizations)
	s.Equal(2, view.ActiveOrganizations)
	s.Require().Len(view.Organizations, 3)

	// Busiest first.
	s.Equal("Busy", view.Organizations[0].Name)
	s.Equal(7, view.Organizations[0].UsageCount)
	s.Equal(ActivityMedium, view.Organizations[0].ActivityLevel)
	s.True(view.Organizations[0].AccessGranted)
	s.InDelta(4.0, view.Organizations[0].AvgDataVolume, 0.001)
	s.Require().NotNil(view.Organizations[0].LastUsageDate)

	s.Equal("Quiet", view.Organizations[1].Name)
	s.Equal(1, view.Organizations[1].UsageCount)
	s.Equal(ActivityLow, view.Organizations[1].ActivityLevel)
	s.False(view.Organizations[1].AccessGranted)

	s.Equal("Silent", view.Organizations[2].Name)
	s.Equal(0, view.Organizations[2].UsageCount)
	s.Nil(view.Organizations[2].LastUsageDate)
}

func (s *TimelineSuite) TestViewActivityWindowExcludesOldRecords() {
	org := s.registerOrg("Acme")
	s.recordUsage(org.ID, 10, 5)
	s.recordUsage(org.ID, 120, 5) // outside the 90-day window

	view, err := s.service.View(s.ctx, "user-1")
	s.Require().NoError(err)

	require.Len(s.T(), view.RecentActivity, 1)
	s.Equal("Acme", view.RecentActivity[0].OrganizationName)
	// The summary still counts everything.
	s.Equal(2, view.Organizations[0].UsageCount)
}

func (s *TimelineSuite) TestViewActivityOrderedMostRecentFirst() {
	org := s.registerOrg("Acme")
	s.recordUsage(org.ID, 3, 5)
	s.recordUsage(org.ID, 1, 5)
	s.recordUsage(org.ID, 2, 5)

	view, err := s.service.View(s.ctx, "user-1")
	s.Require().NoError(err)

	require.Len(s.T(), view.RecentActivity, 3)
	for i := 1; i < len(view.RecentActivity); i++ {
		s.True(view.RecentActivity[i].UsageDate.Before(view.RecentActivity[i-1].UsageDate))
	}
}
