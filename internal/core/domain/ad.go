package domain

import "time"

// AdStatus is the lifecycle state of an ad.
type AdStatus string

const (
	AdPending   AdStatus = "pending"
	AdActive    AdStatus = "active"
	AdPaused    AdStatus = "paused"
	AdCompleted AdStatus = "completed"
	AdRejected  AdStatus = "rejected"
)

// Ad is a single deliverable creative belonging to exactly one campaign.
// Ads carry bids and a frequency-cap policy but no budget of their own;
// all spend rolls up to the parent campaign.
type Ad struct {
	ID         int64
	CampaignID int64
	Name       string

	// Bids are integer amounts in the smallest currency unit, charged
	// against the parent campaign per admitted event.
	BidPerImpression int64
	BidPerClick      int64

	// FreqCapViews admitted views per viewer per FreqCapHours-hour
	// sliding window. Both must be positive; the engine refuses to
	// serve an ad with a non-positive cap rather than defaulting to
	// unlimited.
	FreqCapViews int
	FreqCapHours int

	// Targeting tags are opaque to the delivery engine.
	Targeting []string

	Status      AdStatus
	Impressions int64
	Clicks      int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CapConfigured reports whether the frequency-cap policy is well formed.
func (a *Ad) CapConfigured() bool {
	return a.FreqCapViews > 0 && a.FreqCapHours > 0
}

// CapWindow returns the length of the ad's sliding frequency window.
func (a *Ad) CapWindow() time.Duration {
	return time.Duration(a.FreqCapHours) * time.Hour
}

// WindowStart returns the inclusive lower bound of the sliding window
// ending at now.
func (a *Ad) WindowStart(now time.Time) time.Time {
	return now.Add(-a.CapWindow())
}
