package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"adgate/internal/core/domain"
	"adgate/internal/core/port"
)

// CatalogRepository implements port.CatalogStore. Status changes are
// compare-and-set on the current status so a racing transition loses
// with ErrConflict instead of silently overwriting.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO campaigns
			(owner_id, name, total_budget, daily_spend_limit, spent_total, spent_today,
			 last_spend_day, status, start_time, end_time)
		 VALUES ($1, $2, $3, $4, 0, 0, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		c.OwnerID, c.Name, c.TotalBudget, c.DailySpendLimit, c.LastSpendDay,
		c.Status, c.StartTime, c.EndTime).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *CatalogRepository) CreateAd(ctx context.Context, a *domain.Ad) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ads
			(campaign_id, name, bid_per_impression, bid_per_click,
			 freq_cap_views, freq_cap_hours, targeting, status, impressions, clicks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0)
		 RETURNING id, created_at, updated_at`,
		a.CampaignID, a.Name, a.BidPerImpression, a.BidPerClick,
		a.FreqCapViews, a.FreqCapHours, a.Targeting, a.Status).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("campaign %d: %w", a.CampaignID, port.ErrNotFound)
		}
		return storeErr(err)
	}
	return nil
}

func (r *CatalogRepository) UpdateCampaignStatus(ctx context.Context, id int64, from, to domain.CampaignStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return storeErr(err)
	}
	if ct.RowsAffected() == 0 {
		return r.statusMiss(ctx, "campaigns", id, string(from))
	}
	return nil
}

func (r *CatalogRepository) UpdateAdStatus(ctx context.Context, id int64, from, to domain.AdStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE ads SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return storeErr(err)
	}
	if ct.RowsAffected() == 0 {
		return r.statusMiss(ctx, "ads", id, string(from))
	}
	return nil
}

// statusMiss distinguishes a missing row from a lost compare-and-set.
func (r *CatalogRepository) statusMiss(ctx context.Context, table string, id int64, want string) error {
	var current string
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, table), id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", table, id, port.ErrNotFound)
	}
	if err != nil {
		return storeErr(err)
	}
	return fmt.Errorf("%s %d is %s, not %s: %w", table, id, current, want, port.ErrConflict)
}

// EndExpiredCampaigns moves active campaigns past their end time or out
// of budget to ended and completes their ads, in one transaction.
func (r *CatalogRepository) EndExpiredCampaigns(ctx context.Context, now time.Time) (int64, error) {
	var ended int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`UPDATE campaigns SET status = 'ended', updated_at = now()
			 WHERE status = 'active'
			   AND ((end_time IS NOT NULL AND end_time < $1) OR spent_total >= total_budget)
			 RETURNING id`, now)
		if err != nil {
			return err
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE ads SET status = 'completed', updated_at = now()
			 WHERE campaign_id = ANY($1) AND status IN ('active', 'paused')`, ids)
		ended = int64(len(ids))
		return err
	})
	return ended, err
}

// ResetDailySpend zeroes spent_today on campaigns whose counter belongs
// to an earlier day. The commit path also rolls the day over in its own
// transaction, so this sweep is reconciliation, not a dependency.
func (r *CatalogRepository) ResetDailySpend(ctx context.Context, day time.Time) (int64, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	ct, err := r.pool.Exec(ctx,
		`UPDATE campaigns SET spent_today = 0, last_spend_day = $1, updated_at = now()
		 WHERE last_spend_day < $1 AND spent_today <> 0`, day)
	if err != nil {
		return 0, storeErr(err)
	}
	return ct.RowsAffected(), nil
}

func (r *CatalogRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return storeErr(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}
