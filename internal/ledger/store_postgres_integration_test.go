//go:build integration

package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"trustbase/internal/ledger"
	"trustbase/pkg/platform/sentinel"
	txcontext "trustbase/pkg/platform/tx"
	"trustbase/pkg/testutil/containers"
)

type PostgresChainSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledger.Postgres
	appender *ledger.Appender
}

func TestPostgresChainSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresChainSuite))
}

func (s *PostgresChainSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = ledger.NewPostgres(s.postgres.DB)
	s.appender = ledger.NewAppender(s.store)
}

func (s *PostgresChainSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "ledger_outbox", "transparency_ledger")
	s.Require().NoError(err)
}

// inTx runs fn inside one transaction, the way the coordinator does.
func (s *PostgresChainSuite) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresChainSuite) append(userLabel, orgLabel string, action ledger.Action) *ledger.Entry {
	var entry *ledger.Entry
	err := s.inTx(context.Background(), func(ctx context.Context) error {
		var err error
		entry, err = s.appender.Append(ctx, userLabel, orgLabel, action, time.Now().UTC())
		return err
	})
	s.Require().NoError(err)
	return entry
}

func (s *PostgresChainSuite) TestAppendLinksEntries() {
	first := s.append("User-0001", "Org-0001", ledger.ActionGranted)
	second := s.append("User-0001", "Org-0001", ledger.ActionRevoked)

	s.Nil(first.PreviousHash)
	s.Require().NotNil(second.PreviousHash)
	s.Equal(first.EntryHash, *second.PreviousHash)

	entries, err := s.store.ListAscending(context.Background())
	s.Require().NoError(err)
	report := ledger.Verify(entries)
	s.True(report.Valid)
}

func (s *PostgresChainSuite) TestSchemaRejectsFork() {
	ctx := context.Background()
	genesis := s.append("User-0001", "Org-0001", ledger.ActionGranted)
	s.append("User-0002", "Org-0001", ledger.ActionGranted)

	// Forge a second entry claiming the genesis as its predecessor.
	prev := genesis.EntryHash
	forged := &ledger.Entry{
		AnonymizedUserID: "User-0003",
		AnonymizedOrgID:  "Org-0001",
		Action:           ledger.ActionGranted,
		Timestamp:        time.Now().UTC(),
		EntryHash:        "forged",
		PreviousHash:     &prev,
	}
	err := s.store.Insert(ctx, forged)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresChainSuite) TestSchemaRejectsSecondGenesis() {
	s.append("User-0001", "Org-0001", ledger.ActionGranted)

	forged := &ledger.Entry{
		AnonymizedUserID: "User-0002",
		AnonymizedOrgID:  "Org-0001",
		Action:           ledger.ActionGranted,
		Timestamp:        time.Now().UTC(),
		EntryHash:        "forged",
	}
	err := s.store.Insert(context.Background(), forged)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentAppendsNoForks drives concurrent appends through the same
// tail-lock-and-retry protocol the coordinator uses and verifies the chain
// never forks.
func (s *PostgresChainSuite) TestConcurrentAppendsNoForks() {
	const workers = 30

	var group errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		group.Go(func() error {
			for attempt := 0; attempt < 100; attempt++ {
				err := s.inTx(context.Background(), func(ctx context.Context) error {
					_, err := s.appender.Append(ctx,
						fmt.Sprintf("User-%04d", i+1), "Org-0001",
						ledger.ActionGranted, time.Now().UTC())
					return err
				})
				if err == nil {
					return nil
				}
				if !errors.Is(err, sentinel.ErrConflict) {
					return err
				}
			}
			return errors.New("append kept losing races")
		})
	}
	s.Require().NoError(group.Wait())

	entries, err := s.store.ListAscending(context.Background())
	s.Require().NoError(err)
	s.Require().Len(entries, workers)

	report := ledger.Verify(entries)
	s.True(report.Valid)

	seen := make(map[string]bool, workers)
	for _, entry := range entries {
		key := ""
		if entry.PreviousHash != nil {
			key = *entry.PreviousHash
		}
		s.False(seen[key], "duplicate previous_hash means a fork")
		seen[key] = true
	}
}

func (s *PostgresChainSuite) TestListPaginationAndStats() {
	for i := 0; i < 5; i++ {
		action := ledger.ActionGranted
		if i%2 == 1 {
			action = ledger.ActionRevoked
		}
		s.append(fmt.Sprintf("User-%04d", i%3+1), fmt.Sprintf("Org-%04d", i%2+1), action)
	}

	page, total, err := s.store.List(context.Background(), 2, 0)
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Require().Len(page, 2)
	s.True(page[0].Timestamp.After(page[1].Timestamp) ||
		(page[0].Timestamp.Equal(page[1].Timestamp) && page[0].ID > page[1].ID))

	stats, err := s.store.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(5), stats.TotalEntries)
	s.Equal(int64(3), stats.GrantsCount)
	s.Equal(int64(2), stats.RevokesCount)
	s.Equal(int64(3), stats.UniqueUsers)
	s.Equal(int64(2), stats.UniqueOrgs)
}
