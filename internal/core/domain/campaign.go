package domain

import "time"

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignReview    CampaignStatus = "review"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignEnded     CampaignStatus = "ended"
)

// Campaign represents an advertising campaign owned by one advertiser.
// All money values are integer amounts in the smallest currency unit;
// budget arithmetic never uses floating point.
type Campaign struct {
	ID      int64
	OwnerID string
	Name    string

	// TotalBudget is the hard ceiling for SpentTotal over the campaign's
	// lifetime. DailySpendLimit, when non-nil, caps SpentToday within one
	// UTC calendar day.
	TotalBudget     int64
	DailySpendLimit *int64

	// SpentTotal and SpentToday only grow through committed charges.
	// SpentToday is reset at the UTC day boundary; LastSpendDay records
	// the day the counter belongs to.
	SpentTotal   int64
	SpentToday   int64
	LastSpendDay time.Time

	Status    CampaignStatus
	StartTime time.Time
	EndTime   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Exhausted reports whether the campaign's lifetime budget is fully spent.
func (c *Campaign) Exhausted() bool {
	return c.SpentTotal >= c.TotalBudget
}

// Expired reports whether the campaign's end time has passed.
func (c *Campaign) Expired(now time.Time) bool {
	return c.EndTime != nil && now.After(*c.EndTime)
}
