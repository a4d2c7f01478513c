// Package memory provides an in-memory implementation of the ledger and
// catalog ports. It is the sandbox store: tests and local environments
// inject it instead of threading bypass flags through the engine.
// Commits are serialized by a store-wide mutex, the in-process
// equivalent of the database's conditional transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"adgate/internal/core/domain"
	"adgate/internal/core/port"
)

type charge struct {
	campaignID int64
	adID       int64
	kind       string
	amount     int64
	createdAt  time.Time
}

// Ledger implements port.LedgerStore and port.CatalogStore over plain
// maps. All exported methods are safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	campaigns map[int64]*domain.Campaign
	ads       map[int64]*domain.Ad
	views     map[string][]time.Time // key viewerID:adID
	charges   []charge
	nextID    int64

	// FailCommits makes the next N commit calls return
	// ErrStoreUnavailable without side effects, for retry tests.
	FailCommits int
}

func NewLedger() *Ledger {
	return &Ledger{
		campaigns: make(map[int64]*domain.Campaign),
		ads:       make(map[int64]*domain.Ad),
		views:     make(map[string][]time.Time),
		nextID:    1,
	}
}

func viewKey(viewerID string, adID int64) string {
	return fmt.Sprintf("%s:%d", viewerID, adID)
}

// Put inserts or replaces a campaign and its ads directly, bypassing
// validation. Test seeding helper.
func (l *Ledger) Put(c *domain.Campaign, ads ...*domain.Ad) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *c
	l.campaigns[c.ID] = &cp
	for _, a := range ads {
		ap := *a
		l.ads[a.ID] = &ap
	}
}

func (l *Ledger) LoadCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (l *Ledger) LoadAd(_ context.Context, id int64) (*domain.Ad, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.ads[id]
	if !ok {
		return nil, fmt.Errorf("ad %d: %w", id, port.ErrNotFound)
	}
	ap := *a
	return &ap, nil
}

func (l *Ledger) CountRecentViews(_ context.Context, viewerID string, adID int64, since time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countViewsLocked(viewerID, adID, since), nil
}

func (l *Ledger) countViewsLocked(viewerID string, adID int64, since time.Time) int64 {
	var n int64
	for _, ts := range l.views[viewKey(viewerID, adID)] {
		if !ts.Before(since) {
			n++
		}
	}
	return n
}

// CommitImpression re-checks the frequency cap and budget under the
// store lock, then applies the view record, the spend counters and the
// impression counter together. Either everything applies or nothing.
func (l *Ledger) CommitImpression(_ context.Context, campaignID, adID int64, amount int64, viewerID string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailCommits > 0 {
		l.FailCommits--
		return fmt.Errorf("injected failure: %w", port.ErrStoreUnavailable)
	}
	c, ok := l.campaigns[campaignID]
	if !ok {
		return fmt.Errorf("campaign %d: %w", campaignID, port.ErrNotFound)
	}
	a, ok := l.ads[adID]
	if !ok {
		return fmt.Errorf("ad %d: %w", adID, port.ErrNotFound)
	}

	count := l.countViewsLocked(viewerID, adID, a.WindowStart(now))
	if !domain.UnderCap(a, count) {
		return port.ErrFrequencyCapped
	}

	domain.Rollover(c, now)
	prop := domain.TryCharge(c, amount)
	if !prop.Accepted {
		return port.ErrBudgetExhausted
	}

	c.SpentTotal = prop.NewSpentTotal
	c.SpentToday = prop.NewSpentToday
	key := viewKey(viewerID, adID)
	l.views[key] = append(l.views[key], now)
	a.Impressions++
	l.charges = append(l.charges, charge{campaignID, adID, "impression", amount, now})
	return nil
}

func (l *Ledger) CommitClick(_ context.Context, campaignID, adID int64, amount int64, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailCommits > 0 {
		l.FailCommits--
		return fmt.Errorf("injected failure: %w", port.ErrStoreUnavailable)
	}
	c, ok := l.campaigns[campaignID]
	if !ok {
		return fmt.Errorf("campaign %d: %w", campaignID, port.ErrNotFound)
	}
	a, ok := l.ads[adID]
	if !ok {
		return fmt.Errorf("ad %d: %w", adID, port.ErrNotFound)
	}

	domain.Rollover(c, now)
	prop := domain.TryCharge(c, amount)
	if !prop.Accepted {
		return port.ErrBudgetExhausted
	}

	c.SpentTotal = prop.NewSpentTotal
	c.SpentToday = prop.NewSpentToday
	a.Clicks++
	l.charges = append(l.charges, charge{campaignID, adID, "click", amount, now})
	return nil
}

func (l *Ledger) Stats(_ context.Context, req port.StatsReq) (*port.StatsResp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	resp := &port.StatsResp{}
	for _, ch := range l.charges {
		if ch.createdAt.Before(req.From) || ch.createdAt.After(req.To) {
			continue
		}
		if req.CampaignID != nil && ch.campaignID != *req.CampaignID {
			continue
		}
		switch ch.kind {
		case "impression":
			resp.Impressions++
		case "click":
			resp.Clicks++
		}
		resp.Spend += ch.amount
	}
	return resp, nil
}

// CreateCampaign implements port.CatalogStore.
func (l *Ledger) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c.ID = l.nextID
	l.nextID++
	cp := *c
	l.campaigns[c.ID] = &cp
	return nil
}

func (l *Ledger) CreateAd(_ context.Context, a *domain.Ad) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.campaigns[a.CampaignID]; !ok {
		return fmt.Errorf("campaign %d: %w", a.CampaignID, port.ErrNotFound)
	}
	a.ID = l.nextID
	l.nextID++
	ap := *a
	l.ads[a.ID] = &ap
	return nil
}

func (l *Ledger) UpdateCampaignStatus(_ context.Context, id int64, from, to domain.CampaignStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	if c.Status != from {
		return fmt.Errorf("campaign %d is %s, not %s: %w", id, c.Status, from, port.ErrConflict)
	}
	c.Status = to
	return nil
}

func (l *Ledger) UpdateAdStatus(_ context.Context, id int64, from, to domain.AdStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.ads[id]
	if !ok {
		return fmt.Errorf("ad %d: %w", id, port.ErrNotFound)
	}
	if a.Status != from {
		return fmt.Errorf("ad %d is %s, not %s: %w", id, a.Status, from, port.ErrConflict)
	}
	a.Status = to
	return nil
}

func (l *Ledger) EndExpiredCampaigns(_ context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ended int64
	// Deterministic order keeps tests stable.
	ids := make([]int64, 0, len(l.campaigns))
	for id := range l.campaigns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c := l.campaigns[id]
		if c.Status != domain.CampaignActive {
			continue
		}
		if !c.Expired(now) && !c.Exhausted() {
			continue
		}
		c.Status = domain.CampaignEnded
		for _, a := range l.ads {
			if a.CampaignID == id && (a.Status == domain.AdActive || a.Status == domain.AdPaused) {
				a.Status = domain.AdCompleted
			}
		}
		ended++
	}
	return ended, nil
}

func (l *Ledger) ResetDailySpend(_ context.Context, day time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	day = domain.DayOf(day)
	var n int64
	for _, c := range l.campaigns {
		if c.LastSpendDay.Before(day) && c.SpentToday != 0 {
			c.SpentToday = 0
			c.LastSpendDay = day
			n++
		}
	}
	return n, nil
}
