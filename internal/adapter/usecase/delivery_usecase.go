package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adgate/internal/core/domain"
	"adgate/internal/core/port"
)

// DeliveryService implements port.DeliveryUseCase. It orchestrates the
// eligibility, frequency-cap and budget gates for a single "may I show
// ad A to viewer V" decision and commits the accounting for admitted
// events through the ledger. The pre-checks are advisory fast paths;
// the ledger commit re-checks both gates inside one transaction, so the
// engine never over-admits under concurrency.
type DeliveryService struct {
	ledger port.LedgerStore
	cache  port.ViewCache // optional, may be nil
	logger *slog.Logger
}

// NewDeliveryService creates the engine. cache may be nil to disable
// the frequency-cap fast path.
func NewDeliveryService(ledger port.LedgerStore, cache port.ViewCache, logger *slog.Logger) *DeliveryService {
	return &DeliveryService{ledger: ledger, cache: cache, logger: logger}
}

// RequestDelivery decides whether the ad may be shown to the viewer and,
// on admit, atomically records the view, charges bidPerImpression
// against the campaign and increments the ad's impression counter.
// Denials are values; errors mean the request could not be decided and
// the caller must treat the ad as not shown (fail closed).
func (s *DeliveryService) RequestDelivery(ctx context.Context, adID int64, viewerID string, now time.Time) (domain.Decision, error) {
	ad, camp, err := s.load(ctx, adID)
	if err != nil {
		return domain.Decision{}, err
	}
	if !domain.Eligible(camp, ad, now) {
		return domain.Deny(domain.ReasonIneligible), nil
	}
	if !ad.CapConfigured() {
		return domain.Decision{}, fmt.Errorf("ad %d: views=%d hours=%d: %w",
			ad.ID, ad.FreqCapViews, ad.FreqCapHours, port.ErrBadCapConfig)
	}

	count, err := s.recentViews(ctx, ad, viewerID, now)
	if err != nil {
		return domain.Decision{}, err
	}
	if !domain.UnderCap(ad, count) {
		return domain.Deny(domain.ReasonFrequencyCapped), nil
	}

	// The loaded copy may carry yesterday's daily counter; roll it over
	// before the pre-check or a fresh day would read as exhausted. The
	// commit repeats the rollover on the authoritative row.
	domain.Rollover(camp, now)
	if prop := domain.TryCharge(camp, ad.BidPerImpression); !prop.Accepted {
		return domain.Deny(domain.ReasonBudgetExhausted), nil
	}

	err = s.retryTransient(func() error {
		return s.ledger.CommitImpression(ctx, camp.ID, ad.ID, ad.BidPerImpression, viewerID, now)
	})
	switch {
	case errors.Is(err, port.ErrFrequencyCapped):
		return domain.Deny(domain.ReasonFrequencyCapped), nil
	case errors.Is(err, port.ErrBudgetExhausted):
		return domain.Deny(domain.ReasonBudgetExhausted), nil
	case err != nil:
		return domain.Decision{}, err
	}

	if s.cache != nil {
		// Best effort mirror; the ledger already holds the record.
		if cerr := s.cache.RecordView(ctx, viewerID, ad.ID, ad.CapWindow(), now); cerr != nil {
			s.logger.Warn("view cache record failed", slog.Any("error", cerr))
		}
	}
	return domain.Admit(), nil
}

// RecordClick charges bidPerClick against the campaign and increments
// the ad's click counter. Clicks are not frequency capped and do not
// produce a ViewRecord.
func (s *DeliveryService) RecordClick(ctx context.Context, adID int64, viewerID string, now time.Time) (domain.Decision, error) {
	ad, camp, err := s.load(ctx, adID)
	if err != nil {
		return domain.Decision{}, err
	}
	if !domain.Eligible(camp, ad, now) {
		return domain.Deny(domain.ReasonIneligible), nil
	}
	domain.Rollover(camp, now)
	if prop := domain.TryCharge(camp, ad.BidPerClick); !prop.Accepted {
		return domain.Deny(domain.ReasonBudgetExhausted), nil
	}

	err = s.retryTransient(func() error {
		return s.ledger.CommitClick(ctx, camp.ID, ad.ID, ad.BidPerClick, now)
	})
	switch {
	case errors.Is(err, port.ErrBudgetExhausted):
		return domain.Deny(domain.ReasonBudgetExhausted), nil
	case err != nil:
		return domain.Decision{}, err
	}
	return domain.Admit(), nil
}

// Stats returns aggregated charge totals for a period.
func (s *DeliveryService) Stats(ctx context.Context, req port.StatsReq) (*port.StatsResp, error) {
	return s.ledger.Stats(ctx, req)
}

func (s *DeliveryService) load(ctx context.Context, adID int64) (*domain.Ad, *domain.Campaign, error) {
	ad, err := s.ledger.LoadAd(ctx, adID)
	if err != nil {
		return nil, nil, err
	}
	camp, err := s.ledger.LoadCampaign(ctx, ad.CampaignID)
	if err != nil {
		return nil, nil, err
	}
	return ad, camp, nil
}

// recentViews consults the cache first; a cached count at or above the
// cap is final (the cache holds only committed views, so it never
// overcounts). Anything else falls through to the ledger.
func (s *DeliveryService) recentViews(ctx context.Context, ad *domain.Ad, viewerID string, now time.Time) (int64, error) {
	if s.cache != nil {
		count, err := s.cache.RecentViews(ctx, viewerID, ad.ID, ad.CapWindow(), now)
		if err != nil {
			s.logger.Warn("view cache read failed", slog.Any("error", err))
		} else if !domain.UnderCap(ad, count) {
			return count, nil
		}
	}
	return s.ledger.CountRecentViews(ctx, viewerID, ad.ID, ad.WindowStart(now))
}

// retryTransient runs fn and retries it exactly once when the failure is
// a transient store error. The commit operations apply nothing on
// failure, so the retry observes no partial state.
func (s *DeliveryService) retryTransient(fn func() error) error {
	err := fn()
	if errors.Is(err, port.ErrStoreUnavailable) {
		s.logger.Warn("ledger commit failed, retrying once", slog.Any("error", err))
		err = fn()
	}
	return err
}
