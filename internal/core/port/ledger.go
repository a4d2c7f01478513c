package port

import (
	"context"
	"errors"
	"time"

	"adgate/internal/core/domain"
)

// Sentinel errors shared by the ledger adapters and the delivery engine.
// ErrBudgetExhausted and ErrFrequencyCapped are returned by the commit
// operations when the in-transaction re-check loses a race; the engine
// turns them into ordinary denials. ErrStoreUnavailable marks transient
// I/O failures and is the only error the engine retries.
var (
	ErrNotFound         = errors.New("not found")
	ErrBudgetExhausted  = errors.New("budget exhausted")
	ErrFrequencyCapped  = errors.New("frequency capped")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrBadCapConfig     = errors.New("invalid frequency cap configuration")
	ErrConflict         = errors.New("illegal status transition")
	ErrInvalid          = errors.New("invalid input")
)

// LedgerStore is the outbound port for the durable counters the engine
// mutates: campaign spend, ad impression/click counters and per-viewer
// view history. Implementations must be concurrency-safe, and each
// commit operation must apply all of its writes atomically — a charge
// is never recorded without its view, nor the reverse.
type LedgerStore interface {
	// LoadCampaign returns the campaign or ErrNotFound.
	LoadCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	// LoadAd returns the ad or ErrNotFound.
	LoadAd(ctx context.Context, id int64) (*domain.Ad, error)
	// CountRecentViews counts admitted views for the viewer/ad pair with
	// a timestamp at or after since.
	CountRecentViews(ctx context.Context, viewerID string, adID int64, since time.Time) (int64, error)

	// CommitImpression atomically re-checks the frequency cap and the
	// campaign budget, then inserts one ViewRecord, adds amount to the
	// campaign's spend counters and increments the ad's impression
	// counter. Returns ErrFrequencyCapped or ErrBudgetExhausted when the
	// re-check fails; on any error no write is applied.
	CommitImpression(ctx context.Context, campaignID, adID int64, amount int64, viewerID string, now time.Time) error

	// CommitClick atomically re-checks the campaign budget, adds amount
	// to the spend counters and increments the ad's click counter.
	// Clicks are not frequency capped and insert no ViewRecord.
	CommitClick(ctx context.Context, campaignID, adID int64, amount int64, now time.Time) error

	// Stats returns aggregated charge totals for a period.
	Stats(ctx context.Context, req StatsReq) (*StatsResp, error)
}

// ViewCache is an optional read-side cache of recent admitted views,
// used to short-circuit FrequencyCapped denials without a ledger round
// trip. It is populated only from committed views, so it may undercount
// (the ledger re-checks) but must never overcount.
type ViewCache interface {
	// RecentViews returns the number of cached views inside the window
	// ending at now.
	RecentViews(ctx context.Context, viewerID string, adID int64, window time.Duration, now time.Time) (int64, error)
	// RecordView mirrors one committed view into the cache.
	RecordView(ctx context.Context, viewerID string, adID int64, window time.Duration, now time.Time) error
}

// StatsReq selects the period and optional campaign for Stats.
type StatsReq struct {
	From       time.Time
	To         time.Time
	CampaignID *int64
}

// StatsResp contains aggregated event counts and spend for campaigns.
// Spend sums committed charge amounts in integer currency units.
type StatsResp struct {
	Impressions int64
	Clicks      int64
	Spend       int64
}
