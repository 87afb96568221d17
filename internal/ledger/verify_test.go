package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain appends n alternating grant/revoke entries through the real
// Appender so every test chain is structurally valid.
func buildChain(t *testing.T, store *InMemory, n int) []Entry {
	t.Helper()
	appender := NewAppender(store)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		action := ActionGranted
		if i%2 == 1 {
			action = ActionRevoked
		}
		_, err := appender.Append(context.Background(),
			fmt.Sprintf("User-%04d", i%3+1),
			fmt.Sprintf("Org-%04d", i%2+1),
			action,
			base.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, err)
	}

	entries, err := store.ListAscending(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, n)
	return entries
}

func TestVerifyEmptyAndSingle(t *testing.T) {
	assert.True(t, Verify(nil).Valid)
	assert.True(t, VerifyLinks(nil).Valid)

	entries := buildChain(t, NewInMemory(), 1)
	assert.True(t, Verify(entries).Valid)
	assert.Nil(t, Verify(entries).FirstBreakIndex)
}

func TestVerifyIntactChain(t *testing.T) {
	entries := buildChain(t, NewInMemory(), 8)

	assert.True(t, VerifyLinks(entries).Valid)
	assert.True(t, Verify(entries).Valid)
}

// TestVerifySurvivesMicrosecondRoundTrip pins that a chain appended with
// nanosecond-resolution clock readings still verifies after its timestamps
// pass through microsecond-precision storage, the way TIMESTAMPTZ returns
// them.
func TestVerifySurvivesMicrosecondRoundTrip(t *testing.T) {
	store := NewInMemory()
	appender := NewAppender(store)
	base := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := appender.Append(context.Background(),
			fmt.Sprintf("User-%04d", i+1), "Org-0001", ActionGranted,
			base.Add(time.Duration(i)*time.Minute+time.Duration(i*317)*time.Nanosecond),
		)
		require.NoError(t, err)
	}

	entries, err := store.ListAscending(context.Background())
	require.NoError(t, err)

	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.Round(time.Microsecond)
	}

	report := Verify(entries)
	require.True(t, report.Valid, "stored precision must match hashed precision")
	assert.Nil(t, report.FirstBreakIndex)
}

func TestVerifyLinksDetectsBrokenLink(t *testing.T) {
	entries := buildChain(t, NewInMemory(), 5)

	bogus := "0000000000000000000000000000000000000000000000000000000000000000"
	entries[3].PreviousHash = &bogus

	report := VerifyLinks(entries)
	require.False(t, report.Valid)
	require.NotNil(t, report.FirstBreakIndex)
	assert.Equal(t, 3, *report.FirstBreakIndex)
}

// TestVerifyDetectsFieldTampering flips a single field of each stored entry
// in turn; recomputing verification must localize every mutation.
func TestVerifyDetectsFieldTampering(t *testing.T) {
	const chainLen = 6

	mutations := map[string]func(*Entry){
		"flip action": func(e *Entry) {
			if e.Action == ActionGranted {
				e.Action = ActionRevoked
			} else {
				e.Action = ActionGranted
			}
		},
		"swap user":      func(e *Entry) { e.AnonymizedUserID = "User-9999" },
		"swap org":       func(e *Entry) { e.AnonymizedOrgID = "Org-9999" },
		"shift time":     func(e *Entry) { e.Timestamp = e.Timestamp.Add(time.Second) },
		"replace digest": func(e *Entry) { e.EntryHash = "deadbeef" },
	}

	for name, mutate := range mutations {
		for target := 0; target < chainLen; target++ {
			t.Run(fmt.Sprintf("%s at %d", name, target), func(t *testing.T) {
				store := NewInMemory()
				entries := buildChain(t, store, chainLen)

				require.True(t, store.Tamper(entries[target].ID, mutate))

				tampered, err := store.ListAscending(context.Background())
				require.NoError(t, err)

				report := Verify(tampered)
				require.False(t, report.Valid)
				require.NotNil(t, report.FirstBreakIndex)
				assert.Equal(t, target, *report.FirstBreakIndex,
					"break must be localized to the tampered entry")
			})
		}
	}
}

// Link-checking alone cannot see a consistent rewrite of a tail entry's
// payload+hash; recomputation can. This pins down why Verify recomputes.
func TestLinkCheckMissesWhatRecomputeCatches(t *testing.T) {
	entries := buildChain(t, NewInMemory(), 4)

	// Tamper the final entry's payload without touching any hash. No
	// successor commits to it, so the link walk still passes. The chain
	// alternates actions, so index 3 holds a revoke; flip it to a grant.
	entries[3].Action = ActionGranted

	assert.True(t, VerifyLinks(entries).Valid, "link check alone is blind to tail payload edits")

	report := Verify(entries)
	require.False(t, report.Valid)
	assert.Equal(t, 3, *report.FirstBreakIndex)
}

func TestVerifyDetectsFork(t *testing.T) {
	store := NewInMemory()
	entries := buildChain(t, store, 3)

	// Forge a second entry claiming the same predecessor as entries[2],
	// bypassing the store's uniqueness guard.
	forged := entries[2]
	forged.ID = 99
	forged.AnonymizedUserID = "User-0042"
	forged.Timestamp = forged.Timestamp.Add(time.Minute)
	forged.EntryHash = ComputeEntryHash(forged.AnonymizedUserID, forged.AnonymizedOrgID, forged.Action, forged.Timestamp, forged.PreviousHash)

	withFork := append(append([]Entry{}, entries...), forged)

	report := Verify(withFork)
	require.False(t, report.Valid)
	require.NotNil(t, report.FirstBreakIndex)
	assert.Equal(t, 3, *report.FirstBreakIndex, "chain becomes ambiguous at the second claimant")
}

func TestVerifyRejectsNonGenesisHead(t *testing.T) {
	entries := buildChain(t, NewInMemory(), 3)

	// Drop the genesis entry: the new head claims a predecessor that is
	// not in the sequence.
	report := Verify(entries[1:])
	require.False(t, report.Valid)
	assert.Equal(t, 0, *report.FirstBreakIndex)
}
