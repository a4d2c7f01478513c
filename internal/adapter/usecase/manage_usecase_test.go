package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adgate/internal/adapter/memory"
	"adgate/internal/core/domain"
	"adgate/internal/core/port"
)

func newManage() (*ManageService, *memory.Ledger) {
	ledger := memory.NewLedger()
	return NewManageService(ledger, ledger, testLogger()), ledger
}

func TestCreateCampaignValidation(t *testing.T) {
	svc, _ := newManage()
	ctx := context.Background()

	t.Run("valid campaign starts in draft", func(t *testing.T) {
		c := &domain.Campaign{OwnerID: "adv-1", Name: "spring", TotalBudget: 1000, StartTime: testNow}
		require.NoError(t, svc.CreateCampaign(ctx, c))
		require.NotZero(t, c.ID)
		require.Equal(t, domain.CampaignDraft, c.Status)
	})

	t.Run("non-positive budget rejected", func(t *testing.T) {
		err := svc.CreateCampaign(ctx, &domain.Campaign{TotalBudget: 0, StartTime: testNow})
		require.ErrorIs(t, err, port.ErrInvalid)
	})

	t.Run("end before start rejected", func(t *testing.T) {
		end := testNow.Add(-time.Hour)
		err := svc.CreateCampaign(ctx, &domain.Campaign{TotalBudget: 100, StartTime: testNow, EndTime: &end})
		require.ErrorIs(t, err, port.ErrInvalid)
	})
}

func TestCreateAdValidation(t *testing.T) {
	svc, _ := newManage()
	ctx := context.Background()

	c := &domain.Campaign{OwnerID: "adv-1", TotalBudget: 1000, StartTime: testNow}
	require.NoError(t, svc.CreateCampaign(ctx, c))

	t.Run("valid ad starts pending", func(t *testing.T) {
		a := &domain.Ad{CampaignID: c.ID, BidPerImpression: 10, BidPerClick: 20, FreqCapViews: 2, FreqCapHours: 24}
		require.NoError(t, svc.CreateAd(ctx, a))
		require.Equal(t, domain.AdPending, a.Status)
	})

	t.Run("zero cap rejected, never silently unlimited", func(t *testing.T) {
		a := &domain.Ad{CampaignID: c.ID, BidPerImpression: 10, BidPerClick: 20, FreqCapViews: 0, FreqCapHours: 24}
		require.ErrorIs(t, svc.CreateAd(ctx, a), port.ErrBadCapConfig)
	})

	t.Run("unknown campaign rejected", func(t *testing.T) {
		a := &domain.Ad{CampaignID: 999, BidPerImpression: 10, BidPerClick: 20, FreqCapViews: 2, FreqCapHours: 24}
		require.ErrorIs(t, svc.CreateAd(ctx, a), port.ErrNotFound)
	})
}

func TestCampaignLifecycle(t *testing.T) {
	svc, _ := newManage()
	ctx := context.Background()

	c := &domain.Campaign{OwnerID: "adv-1", TotalBudget: 1000, StartTime: testNow}
	require.NoError(t, svc.CreateCampaign(ctx, c))

	steps := []struct {
		event domain.CampaignEvent
		want  domain.CampaignStatus
	}{
		{domain.CampaignSubmit, domain.CampaignReview},
		{domain.CampaignApprove, domain.CampaignScheduled},
		{domain.CampaignActivate, domain.CampaignActive},
		{domain.CampaignPause, domain.CampaignPaused},
		{domain.CampaignResume, domain.CampaignActive},
		{domain.CampaignEnd, domain.CampaignEnded},
	}
	for _, s := range steps {
		got, err := svc.TransitionCampaign(ctx, c.ID, s.event)
		require.NoError(t, err, "event %s", s.event)
		require.Equal(t, s.want, got)
	}

	// ended is terminal
	_, err := svc.TransitionCampaign(ctx, c.ID, domain.CampaignResume)
	require.ErrorIs(t, err, port.ErrConflict)
}

func TestAdLifecycle(t *testing.T) {
	svc, _ := newManage()
	ctx := context.Background()

	c := &domain.Campaign{OwnerID: "adv-1", TotalBudget: 1000, StartTime: testNow}
	require.NoError(t, svc.CreateCampaign(ctx, c))
	a := &domain.Ad{CampaignID: c.ID, BidPerImpression: 10, BidPerClick: 20, FreqCapViews: 2, FreqCapHours: 24}
	require.NoError(t, svc.CreateAd(ctx, a))

	got, err := svc.TransitionAd(ctx, a.ID, domain.AdApprove)
	require.NoError(t, err)
	require.Equal(t, domain.AdActive, got)

	got, err = svc.TransitionAd(ctx, a.ID, domain.AdPause)
	require.NoError(t, err)
	require.Equal(t, domain.AdPaused, got)

	_, err = svc.TransitionAd(ctx, a.ID, domain.AdReject)
	require.ErrorIs(t, err, port.ErrConflict)
}

func TestAdCannotActivateInEndedCampaign(t *testing.T) {
	svc, ledger := newManage()
	ctx := context.Background()

	c := &domain.Campaign{OwnerID: "adv-1", TotalBudget: 1000, StartTime: testNow}
	require.NoError(t, svc.CreateCampaign(ctx, c))
	a := &domain.Ad{CampaignID: c.ID, BidPerImpression: 10, BidPerClick: 20, FreqCapViews: 2, FreqCapHours: 24}
	require.NoError(t, svc.CreateAd(ctx, a))

	require.NoError(t, ledger.UpdateCampaignStatus(ctx, c.ID, domain.CampaignDraft, domain.CampaignEnded))

	_, err := svc.TransitionAd(ctx, a.ID, domain.AdApprove)
	require.ErrorIs(t, err, port.ErrConflict)
}
