package port

import (
	"context"
	"time"

	"adgate/internal/core/domain"
)

// CatalogStore is the outbound port for campaign/ad definitions: the
// CRUD side of the system. Status updates are compare-and-set on the
// current status so concurrent transitions cannot skip a state.
type CatalogStore interface {
	// CreateCampaign persists a new campaign and fills in its ID.
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	// CreateAd persists a new ad and fills in its ID. The parent
	// campaign must exist (ErrNotFound otherwise).
	CreateAd(ctx context.Context, a *domain.Ad) error

	// UpdateCampaignStatus moves a campaign from one status to another.
	// Returns ErrConflict when the campaign is no longer in from.
	UpdateCampaignStatus(ctx context.Context, id int64, from, to domain.CampaignStatus) error
	// UpdateAdStatus moves an ad from one status to another.
	UpdateAdStatus(ctx context.Context, id int64, from, to domain.AdStatus) error

	// EndExpiredCampaigns transitions every active campaign whose end
	// time has passed or whose budget is exhausted to Ended, completes
	// its ads, and returns how many campaigns it touched.
	EndExpiredCampaigns(ctx context.Context, now time.Time) (int64, error)
	// ResetDailySpend zeroes spent_today on campaigns whose last spend
	// day is before the given day. Returns how many rows changed.
	ResetDailySpend(ctx context.Context, day time.Time) (int64, error)
}
