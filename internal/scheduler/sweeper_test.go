package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"

	"adgate/internal/adapter/memory"
	"adgate/internal/core/domain"
)

func TestSweepsEndAndReset(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	ledger := memory.NewLedger()
	ledger.Put(&domain.Campaign{ID: 1, TotalBudget: 1000, Status: domain.CampaignActive,
		StartTime: now.Add(-48 * time.Hour), EndTime: &past},
		&domain.Ad{ID: 10, CampaignID: 1, Status: domain.AdActive})
	ledger.Put(&domain.Campaign{ID: 2, TotalBudget: 1000, SpentToday: 300,
		LastSpendDay: now.Add(-48 * time.Hour), Status: domain.CampaignPaused})

	s := New(ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.endExpired()
	s.resetDaily()

	c, err := ledger.LoadCampaign(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, domain.CampaignEnded, c.Status)
	a, err := ledger.LoadAd(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, domain.AdCompleted, a.Status)

	c, err = ledger.LoadCampaign(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(0), c.SpentToday)
}

func TestStartRegistersJobs(t *testing.T) {
	s := New(memory.NewLedger(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, s.Start())
	defer s.Stop()
	require.Len(t, s.scheduler.Jobs(), 2)
}
