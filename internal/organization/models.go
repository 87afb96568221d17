// Package organization is the catalog of data-consuming organizations.
// Transition requests are validated against it, and authenticated reporting
// paths join it for display metadata. The public ledger never touches it.
package organization

import "time"

// Organization is one catalog entry.
type Organization struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	LogoURL          string    `json:"logo_url"`
	Category         string    `json:"category"`
	DataAccessReason string    `json:"data_access_reason"`
	WebsiteURL       string    `json:"website_url,omitempty"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	PrivacyScore     int       `json:"privacy_score"`
	CreatedAt        time.Time `json:"created_at"`
}

// WithAccess is an organization joined with the caller's permission state.
type WithAccess struct {
	Organization
	AccessGranted bool       `json:"access_granted"`
	GrantedAt     *time.Time `json:"granted_at,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

// DefaultPrivacyScore is assigned when a new organization omits one.
const DefaultPrivacyScore = 7
