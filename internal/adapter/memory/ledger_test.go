package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adgate/internal/core/domain"
	"adgate/internal/core/port"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func seed(totalBudget int64, capViews int) *Ledger {
	l := NewLedger()
	l.Put(
		&domain.Campaign{ID: 1, TotalBudget: totalBudget, Status: domain.CampaignActive, StartTime: now.Add(-time.Hour)},
		&domain.Ad{ID: 10, CampaignID: 1, BidPerImpression: 100, BidPerClick: 300, FreqCapViews: capViews, FreqCapHours: 24, Status: domain.AdActive},
	)
	return l
}

// Hammering one campaign with concurrent commits never pushes
// spent_total past the budget, and the number of accepted commits
// accounts exactly for the final counter.
func TestConcurrentCommitsRespectBudget(t *testing.T) {
	l := seed(1000, 1000)
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = l.CommitImpression(ctx, 1, 10, 100, fmt.Sprintf("v-%d", i), now)
		}(i)
	}
	wg.Wait()

	var accepted int64
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, port.ErrBudgetExhausted):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, int64(10), accepted)

	c, err := l.LoadCampaign(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1000), c.SpentTotal)
	require.Equal(t, accepted*100, c.SpentTotal)
}

// Concurrent commits for one viewer/ad pair never record more views in
// the window than the cap.
func TestConcurrentCommitsRespectCap(t *testing.T) {
	l := seed(1_000_000, 4)
	ctx := context.Background()

	const n = 60
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = l.CommitImpression(ctx, 1, 10, 100, "hot", now)
		}()
	}
	wg.Wait()

	count, err := l.CountRecentViews(ctx, "hot", 10, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(4), count)
}

// A commit denied by the cap leaves every counter untouched.
func TestDeniedCommitHasNoSideEffects(t *testing.T) {
	l := seed(1000, 1)
	ctx := context.Background()

	require.NoError(t, l.CommitImpression(ctx, 1, 10, 100, "v", now))
	err := l.CommitImpression(ctx, 1, 10, 100, "v", now)
	require.ErrorIs(t, err, port.ErrFrequencyCapped)

	c, err := l.LoadCampaign(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(100), c.SpentTotal)
	a, err := l.LoadAd(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), a.Impressions)
}

func TestDailyRollover(t *testing.T) {
	l := seed(10000, 1000)
	ctx := context.Background()
	limit := int64(200)
	l.Put(&domain.Campaign{ID: 1, TotalBudget: 10000, DailySpendLimit: &limit, Status: domain.CampaignActive, StartTime: now.Add(-time.Hour)},
		&domain.Ad{ID: 10, CampaignID: 1, BidPerImpression: 100, BidPerClick: 300, FreqCapViews: 1000, FreqCapHours: 24, Status: domain.AdActive})

	require.NoError(t, l.CommitImpression(ctx, 1, 10, 100, "a", now))
	require.NoError(t, l.CommitImpression(ctx, 1, 10, 100, "b", now))
	require.ErrorIs(t, l.CommitImpression(ctx, 1, 10, 100, "c", now), port.ErrBudgetExhausted)

	nextDay := now.Add(13 * time.Hour)
	require.NoError(t, l.CommitImpression(ctx, 1, 10, 100, "c", nextDay))

	c, err := l.LoadCampaign(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(300), c.SpentTotal)
	require.Equal(t, int64(100), c.SpentToday)
}

func TestEndExpiredCampaigns(t *testing.T) {
	l := NewLedger()
	past := now.Add(-time.Hour)
	l.Put(&domain.Campaign{ID: 1, TotalBudget: 1000, Status: domain.CampaignActive, StartTime: now.Add(-48 * time.Hour), EndTime: &past},
		&domain.Ad{ID: 10, CampaignID: 1, Status: domain.AdActive})
	l.Put(&domain.Campaign{ID: 2, TotalBudget: 1000, SpentTotal: 1000, Status: domain.CampaignActive, StartTime: now.Add(-time.Hour)},
		&domain.Ad{ID: 20, CampaignID: 2, Status: domain.AdPaused})
	l.Put(&domain.Campaign{ID: 3, TotalBudget: 1000, Status: domain.CampaignActive, StartTime: now.Add(-time.Hour)},
		&domain.Ad{ID: 30, CampaignID: 3, Status: domain.AdActive})

	n, err := l.EndExpiredCampaigns(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	for _, tc := range []struct {
		campaignID int64
		adID       int64
		campStatus domain.CampaignStatus
		adStatus   domain.AdStatus
	}{
		{1, 10, domain.CampaignEnded, domain.AdCompleted},
		{2, 20, domain.CampaignEnded, domain.AdCompleted},
		{3, 30, domain.CampaignActive, domain.AdActive},
	} {
		c, err := l.LoadCampaign(context.Background(), tc.campaignID)
		require.NoError(t, err)
		require.Equal(t, tc.campStatus, c.Status)
		a, err := l.LoadAd(context.Background(), tc.adID)
		require.NoError(t, err)
		require.Equal(t, tc.adStatus, a.Status)
	}
}

func TestResetDailySpend(t *testing.T) {
	l := NewLedger()
	l.Put(&domain.Campaign{ID: 1, TotalBudget: 1000, SpentToday: 400, LastSpendDay: now.Add(-24 * time.Hour)})
	l.Put(&domain.Campaign{ID: 2, TotalBudget: 1000, SpentToday: 100, LastSpendDay: now})

	n, err := l.ResetDailySpend(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	c, err := l.LoadCampaign(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), c.SpentToday)
}
