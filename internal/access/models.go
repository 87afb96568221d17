// Package access holds the current data-access permission per
// (principal, organization) pair. Writes go exclusively through the
// transition coordinator; reporting paths read it.
package access

import "time"

// Grant is the current permission state for one (principal, organization)
// pair. Exactly one record exists per pair (upsert semantics).
type Grant struct {
	PrincipalID    string     `json:"user_id"`
	OrganizationID string     `json:"organization_id"`
	Granted        bool       `json:"access_granted"`
	GrantedAt      *time.Time `json:"granted_at"`
	RevokedAt      *time.Time `json:"revoked_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
