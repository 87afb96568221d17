// Package ledger implements the public transparency ledger: an append-only,
// hash-linked sequence of permission transitions. Each entry commits to its
// predecessor's hash, so any post-hoc modification of stored history is
// detectable by re-walking the chain. There is no repair path: a broken
// chain is reported, never healed.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Action records which way a permission flipped.
type Action string

const (
	ActionGranted Action = "granted"
	ActionRevoked Action = "revoked"
)

// Valid reports whether the action is one of the known transitions.
func (a Action) Valid() bool {
	return a == ActionGranted || a == ActionRevoked
}

// Entry is one immutable link in the chain. Entries are ordered by
// (timestamp, id) ascending; previous_hash of every entry except the first
// equals the entry_hash of its immediate predecessor in that order.
type Entry struct {
	ID               int64     `json:"id"`
	AnonymizedUserID string    `json:"anonymized_user_id"`
	AnonymizedOrgID  string    `json:"anonymized_org_id"`
	Action           Action    `json:"action_type"`
	Timestamp        time.Time `json:"timestamp"`
	EntryHash        string    `json:"entry_hash"`
	PreviousHash     *string   `json:"previous_hash"`
}

// canonicalTimestamp is the single timestamp encoding used for hashing:
// RFC 3339, UTC, at most microsecond precision. TIMESTAMPTZ stores
// microseconds, so hashing anything finer would make a stored entry fail
// re-verification after a database round trip.
func canonicalTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
}

// ComputeEntryHash produces the canonical SHA-256 digest of an entry's
// contents: fixed field order, "|" separators, canonical timestamp, and the
// empty string standing in for the genesis entry's nil previous hash.
func ComputeEntryHash(anonUserID, anonOrgID string, action Action, at time.Time, previousHash *string) string {
	prev := ""
	if previousHash != nil {
		prev = *previousHash
	}
	var b strings.Builder
	b.WriteString(anonUserID)
	b.WriteByte('|')
	b.WriteString(anonOrgID)
	b.WriteByte('|')
	b.WriteString(string(action))
	b.WriteByte('|')
	b.WriteString(canonicalTimestamp(at))
	b.WriteByte('|')
	b.WriteString(prev)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Stats summarizes the chain for the public read path. All fields derive
// from a single linear scan.
type Stats struct {
	TotalEntries int64      `json:"total_entries"`
	GrantsCount  int64      `json:"grants_count"`
	RevokesCount int64      `json:"revokes_count"`
	UniqueUsers  int64      `json:"unique_users"`
	UniqueOrgs   int64      `json:"unique_orgs"`
	FirstEntry   *time.Time `json:"first_entry"`
	LatestEntry  *time.Time `json:"latest_entry"`
}
