package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"adgate/internal/core/domain"
)

// Seed inserts demo campaigns, ads and a day of delivery history.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tags := [][]string{
		{"music", "pre-roll"},
		{"tech", "mid-roll"},
		{"sports", "pre-roll"},
	}

	for i := 1; i <= 5; i++ {
		name := fmt.Sprintf("Campaign %d", i)
		start := time.Now().AddDate(0, 0, -1)
		end := time.Now().AddDate(0, 1, 0)
		totalBudget := int64(500000) // 5000.00 units
		dailyLimit := int64(100000)  // 1000.00 units
		_, err := db.Exec(ctx, `INSERT INTO campaigns
    (id, owner_id, name, total_budget, daily_spend_limit, spent_total, spent_today,
     last_spend_day, status, start_time, end_time, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,0,CURRENT_DATE,'active',$6,$7,now(),now()) ON CONFLICT DO NOTHING`,
			i, fmt.Sprintf("advertiser-%d", i), name, totalBudget, dailyLimit, start, end)
		if err != nil {
			return err
		}
		// ads for campaign
		for j := 1; j <= 4; j++ {
			adID := (i-1)*4 + j
			title := fmt.Sprintf("Ad %d for campaign %d", j, i)
			bidImp := int64(50 + r.Intn(100))
			bidClick := int64(500 + r.Intn(1000))
			capViews := 2 + r.Intn(4)
			capHours := []int{6, 12, 24}[r.Intn(3)]
			_, err = db.Exec(ctx, `INSERT INTO ads
(id, campaign_id, name, bid_per_impression, bid_per_click, freq_cap_views, freq_cap_hours,
 targeting, status, impressions, clicks, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'active',0,0,now(),now()) ON CONFLICT DO NOTHING`,
				adID, i, title, bidImp, bidClick, capViews, capHours, tags[r.Intn(len(tags))])
			if err != nil {
				return err
			}
		}
	}

	// a day of admitted views and clicks
	viewers := make([]string, 40)
	for i := range viewers {
		viewers[i] = uuid.NewString()
	}
	today := domain.DayOf(time.Now())
	spentTotal := make(map[int64]int64)
	spentToday := make(map[int64]int64)
	record := func(campaignID, amount int64, at time.Time) {
		spentTotal[campaignID] += amount
		if !at.Before(today) {
			spentToday[campaignID] += amount
		}
	}
	for i := 0; i < 500; i++ {
		adID := int64(r.Intn(20) + 1)
		campaignID := (adID-1)/4 + 1
		viewerID := viewers[r.Intn(len(viewers))]
		at := time.Now().Add(-time.Duration(r.Intn(24*3600)) * time.Second)
		amount := int64(50 + r.Intn(100))
		_, err := db.Exec(ctx, `INSERT INTO ad_views (viewer_id, ad_id, viewed_at)
VALUES ($1,$2,$3)`, viewerID, adID, at)
		if err != nil {
			return err
		}
		_, err = db.Exec(ctx, `INSERT INTO charges (campaign_id, ad_id, kind, amount, viewer_id, created_at)
VALUES ($1,$2,'impression',$3,$4,$5)`, campaignID, adID, amount, viewerID, at)
		if err != nil {
			return err
		}
		record(campaignID, amount, at)
		if r.Intn(10) == 0 {
			clickAmount := int64(500 + r.Intn(1000))
			_, err = db.Exec(ctx, `INSERT INTO charges (campaign_id, ad_id, kind, amount, created_at)
VALUES ($1,$2,'click',$3,$4)`, campaignID, adID, clickAmount, at)
			if err != nil {
				return err
			}
			record(campaignID, clickAmount, at)
		}
	}

	// Fold the charge history into the campaign counters so the seeded
	// ledger balances. Incremental so rerunning the seed stays consistent
	// with the extra charge rows it appends.
	for campaignID, total := range spentTotal {
		_, err := db.Exec(ctx, `UPDATE campaigns
SET spent_total = spent_total + $1, spent_today = spent_today + $2, updated_at = now()
WHERE id = $3`, total, spentToday[campaignID], campaignID)
		if err != nil {
			return err
		}
	}
	return nil
}
