package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"adgate/internal/core/domain"
	"adgate/internal/core/port"
)

// ManageService implements port.ManageUseCase. It owns campaign/ad
// lifecycle transitions and is the only writer of status fields, so the
// delivery engine can never observe a state outside the transition
// tables in the domain package.
type ManageService struct {
	ledger  port.LedgerStore
	catalog port.CatalogStore
	logger  *slog.Logger
}

func NewManageService(ledger port.LedgerStore, catalog port.CatalogStore, logger *slog.Logger) *ManageService {
	return &ManageService{ledger: ledger, catalog: catalog, logger: logger}
}

// CreateCampaign validates static invariants and persists the campaign
// in Draft with zeroed spend counters.
func (s *ManageService) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	if c.TotalBudget <= 0 {
		return fmt.Errorf("total budget must be positive: %w", port.ErrInvalid)
	}
	if c.DailySpendLimit != nil && *c.DailySpendLimit <= 0 {
		return fmt.Errorf("daily spend limit must be positive when set: %w", port.ErrInvalid)
	}
	if c.EndTime != nil && !c.EndTime.After(c.StartTime) {
		return fmt.Errorf("end time must be after start time: %w", port.ErrInvalid)
	}
	c.Status = domain.CampaignDraft
	c.SpentTotal = 0
	c.SpentToday = 0
	c.LastSpendDay = domain.DayOf(time.Now())
	return s.catalog.CreateCampaign(ctx, c)
}

// CreateAd validates bids and the frequency-cap policy and persists the
// ad in Pending, awaiting moderation. A non-positive cap is rejected
// here for the same reason the engine refuses it: silently unlimited
// views would be a correctness hazard, not a default.
func (s *ManageService) CreateAd(ctx context.Context, a *domain.Ad) error {
	if a.BidPerImpression <= 0 || a.BidPerClick <= 0 {
		return fmt.Errorf("bids must be positive: %w", port.ErrInvalid)
	}
	if !a.CapConfigured() {
		return fmt.Errorf("views=%d hours=%d: %w", a.FreqCapViews, a.FreqCapHours, port.ErrBadCapConfig)
	}
	if _, err := s.ledger.LoadCampaign(ctx, a.CampaignID); err != nil {
		return err
	}
	if a.Targeting == nil {
		a.Targeting = []string{}
	}
	a.Status = domain.AdPending
	a.Impressions = 0
	a.Clicks = 0
	return s.catalog.CreateAd(ctx, a)
}

// TransitionCampaign applies one lifecycle event. Illegal transitions
// return ErrConflict. The status update is compare-and-set, so two
// racing transitions cannot both win.
func (s *ManageService) TransitionCampaign(ctx context.Context, id int64, event domain.CampaignEvent) (domain.CampaignStatus, error) {
	camp, err := s.ledger.LoadCampaign(ctx, id)
	if err != nil {
		return "", err
	}
	next, ok := domain.NextCampaignStatus(camp.Status, event)
	if !ok {
		return "", fmt.Errorf("campaign %d: %s on %s: %w", id, event, camp.Status, port.ErrConflict)
	}
	if err = s.catalog.UpdateCampaignStatus(ctx, id, camp.Status, next); err != nil {
		return "", err
	}
	s.logger.Info("campaign transition",
		slog.Int64("campaign_id", id),
		slog.String("from", string(camp.Status)),
		slog.String("to", string(next)))
	return next, nil
}

// TransitionAd applies one lifecycle event to an ad. An ad may only be
// activated while its parent campaign is not ended.
func (s *ManageService) TransitionAd(ctx context.Context, id int64, event domain.AdEvent) (domain.AdStatus, error) {
	ad, err := s.ledger.LoadAd(ctx, id)
	if err != nil {
		return "", err
	}
	next, ok := domain.NextAdStatus(ad.Status, event)
	if !ok {
		return "", fmt.Errorf("ad %d: %s on %s: %w", id, event, ad.Status, port.ErrConflict)
	}
	if next == domain.AdActive {
		camp, err := s.ledger.LoadCampaign(ctx, ad.CampaignID)
		if err != nil {
			return "", err
		}
		if camp.Status == domain.CampaignEnded {
			return "", fmt.Errorf("ad %d: campaign %d is ended: %w", id, camp.ID, port.ErrConflict)
		}
	}
	if err = s.catalog.UpdateAdStatus(ctx, id, ad.Status, next); err != nil {
		return "", err
	}
	s.logger.Info("ad transition",
		slog.Int64("ad_id", id),
		slog.String("from", string(ad.Status)),
		slog.String("to", string(next)))
	return next, nil
}
