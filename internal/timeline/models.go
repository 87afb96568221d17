// Package timeline reports how organizations have been using the caller's
// data: per-organization usage summaries plus a recent-activity feed. It is
// a read-side view; nothing here writes permission state or the ledger.
package timeline

import "time"

// UsageRecord is one recorded data access by an organization.
type UsageRecord struct {
	ID              int64     `json:"id"`
	OrganizationID  string    `json:"organization_id"`
	UserID          string    `json:"user_id"`
	UsageDate       time.Time `json:"usage_date"`
	DataType        string    `json:"data_type"`
	Purpose         string    `json:"purpose"`
	DataVolumeScore float64   `json:"data_volume_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// ActivityLevel buckets a usage count for display.
type ActivityLevel string

const (
	ActivityHigh   ActivityLevel = "high"
	ActivityMedium ActivityLevel = "medium"
	ActivityLow    ActivityLevel = "low"
)

// LevelFor buckets a usage count.
func LevelFor(usageCount int) ActivityLevel {
	switch {
	case usageCount > 20:
		return ActivityHigh
	case usageCount > 5:
		return ActivityMedium
	default:
		return ActivityLow
	}
}

// OrgSummary is one organization's aggregated usage of the caller's data.
type OrgSummary struct {
	OrganizationID string        `json:"organization_id"`
	Name           string        `json:"name"`
	LogoURL        string        `json:"logo_url"`
	Category       string        `json:"category"`
	PrivacyScore   int           `json:"privacy_score"`
	AccessGranted  bool          `json:"access_granted"`
	UsageCount     int           `json:"usage_count"`
	LastUsageDate  *time.Time    `json:"last_usage_date,omitempty"`
	AvgDataVolume  float64       `json:"avg_data_volume"`
	ActivityLevel  ActivityLevel `json:"activity_level"`
}

// Activity is one usage record joined with organization display metadata.
type Activity struct {
	UsageRecord
	OrganizationName string `json:"organization_name"`
	LogoURL          string `json:"logo_url"`
	Category         string `json:"category"`
}

// View is the response shape of the timeline read path.
type View struct {
	Organizations       []OrgSummary `json:"organizations"`
	RecentActivity      []Activity   `json:"recent_activity"`
	TotalOrganizations  int          `json:"total_organizations"`
	ActiveOrganizations int          `json:"active_organizations"`
}
