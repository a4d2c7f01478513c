package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEligible(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	end := now.Add(24 * time.Hour)

	base := func() (*Campaign, *Ad) {
		return &Campaign{
				Status:    CampaignActive,
				StartTime: now.Add(-time.Hour),
				EndTime:   &end,
			}, &Ad{
				Status: AdActive,
			}
	}

	t.Run("active campaign and ad", func(t *testing.T) {
		c, a := base()
		require.True(t, Eligible(c, a, now))
	})

	t.Run("paused ad never admitted", func(t *testing.T) {
		c, a := base()
		a.Status = AdPaused
		require.False(t, Eligible(c, a, now))
	})

	t.Run("ended campaign never admitted", func(t *testing.T) {
		c, a := base()
		c.Status = CampaignEnded
		require.False(t, Eligible(c, a, now))
	})

	t.Run("before start time", func(t *testing.T) {
		c, a := base()
		c.StartTime = now.Add(time.Hour)
		require.False(t, Eligible(c, a, now))
	})

	t.Run("after end time", func(t *testing.T) {
		c, a := base()
		past := now.Add(-time.Minute)
		c.EndTime = &past
		require.False(t, Eligible(c, a, now))
	})

	t.Run("nil end time never expires", func(t *testing.T) {
		c, a := base()
		c.EndTime = nil
		require.True(t, Eligible(c, a, now))
	})

	t.Run("unknown status is ineligible not an error", func(t *testing.T) {
		c, a := base()
		c.Status = "garbage"
		require.False(t, Eligible(c, a, now))
	})
}

func TestCampaignTransitions(t *testing.T) {
	legal := []struct {
		from  CampaignStatus
		event CampaignEvent
		to    CampaignStatus
	}{
		{CampaignDraft, CampaignSubmit, CampaignReview},
		{CampaignReview, CampaignApprove, CampaignScheduled},
		{CampaignScheduled, CampaignActivate, CampaignActive},
		{CampaignActive, CampaignPause, CampaignPaused},
		{CampaignPaused, CampaignResume, CampaignActive},
		{CampaignActive, CampaignEnd, CampaignEnded},
		{CampaignPaused, CampaignEnd, CampaignEnded},
	}
	for _, tt := range legal {
		to, ok := NextCampaignStatus(tt.from, tt.event)
		require.True(t, ok, "%s on %s", tt.event, tt.from)
		require.Equal(t, tt.to, to)
	}

	illegal := []struct {
		from  CampaignStatus
		event CampaignEvent
	}{
		{CampaignDraft, CampaignActivate},
		{CampaignEnded, CampaignResume},
		{CampaignEnded, CampaignEnd},
		{CampaignActive, CampaignSubmit},
	}
	for _, tt := range illegal {
		_, ok := NextCampaignStatus(tt.from, tt.event)
		require.False(t, ok, "%s on %s should be illegal", tt.event, tt.from)
	}
}

func TestAdTransitions(t *testing.T) {
	to, ok := NextAdStatus(AdPending, AdApprove)
	require.True(t, ok)
	require.Equal(t, AdActive, to)

	to, ok = NextAdStatus(AdPending, AdReject)
	require.True(t, ok)
	require.Equal(t, AdRejected, to)

	// rejected is terminal
	for _, e := range []AdEvent{AdApprove, AdResume, AdPause, AdComplete} {
		_, ok = NextAdStatus(AdRejected, e)
		require.False(t, ok, "%s on rejected should be illegal", e)
	}

	to, ok = NextAdStatus(AdActive, AdPause)
	require.True(t, ok)
	require.Equal(t, AdPaused, to)

	to, ok = NextAdStatus(AdPaused, AdComplete)
	require.True(t, ok)
	require.Equal(t, AdCompleted, to)
}
