package port

import (
	"context"
	"time"

	"adgate/internal/core/domain"
)

// DeliveryUseCase is the primary port into the admission-control engine.
// Denials come back inside the Decision; only NotFound, configuration
// and store failures surface as errors.
type DeliveryUseCase interface {
	// RequestDelivery decides whether the ad may be shown to the viewer
	// right now and, when admitted, commits the impression charge and
	// view record in one atomic step.
	RequestDelivery(ctx context.Context, adID int64, viewerID string, now time.Time) (domain.Decision, error)

	// RecordClick charges a click against the parent campaign's budget.
	// Clicks are not frequency capped.
	RecordClick(ctx context.Context, adID int64, viewerID string, now time.Time) (domain.Decision, error)

	// Stats returns aggregated delivery statistics for a period.
	Stats(ctx context.Context, req StatsReq) (*StatsResp, error)
}

// ManageUseCase is the primary port for the CRUD side: creating
// campaigns and ads and driving their lifecycle transitions. It is the
// only writer of campaign/ad status; the delivery engine never
// transitions state.
type ManageUseCase interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	CreateAd(ctx context.Context, a *domain.Ad) error
	TransitionCampaign(ctx context.Context, id int64, event domain.CampaignEvent) (domain.CampaignStatus, error)
	TransitionAd(ctx context.Context, id int64, event domain.AdEvent) (domain.AdStatus, error)
}
