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

// LedgerRepository implements port.LedgerStore using pgxpool. Commits
// run in a serializable transaction with the campaign row locked, so
// concurrent charges against one campaign serialize at the database and
// spent_total can never pass total_budget, even transiently. The
// campaign lock is always taken before the ad row, in that fixed order,
// on both commit paths.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository returns a new repository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const campaignColumns = `id, owner_id, name, total_budget, daily_spend_limit,
	spent_total, spent_today, last_spend_day, status, start_time, end_time, created_at, updated_at`

const adColumns = `id, campaign_id, name, bid_per_impression, bid_per_click,
	freq_cap_views, freq_cap_hours, targeting, status, impressions, clicks, created_at, updated_at`

// LoadCampaign returns the campaign or ErrNotFound.
func (r *LedgerRepository) LoadCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return c, nil
}

// LoadAd returns the ad or ErrNotFound.
func (r *LedgerRepository) LoadAd(ctx context.Context, id int64) (*domain.Ad, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id)
	a, err := scanAd(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ad %d: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return a, nil
}

// CountRecentViews counts admitted views for the viewer/ad pair since
// the given time.
func (r *LedgerRepository) CountRecentViews(ctx context.Context, viewerID string, adID int64, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM ad_views WHERE viewer_id = $1 AND ad_id = $2 AND viewed_at >= $3`,
		viewerID, adID, since).Scan(&n)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// CommitImpression re-checks the frequency cap and the budget inside a
// single serializable transaction, then applies the view record, the
// spend counters, the impression counter and the charge ledger row.
// Nothing is applied on any failure.
func (r *LedgerRepository) CommitImpression(ctx context.Context, campaignID, adID int64, amount int64, viewerID string, now time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		camp, err := lockCampaign(ctx, tx, campaignID)
		if err != nil {
			return err
		}

		var capViews, capHours int
		err = tx.QueryRow(ctx,
			`SELECT freq_cap_views, freq_cap_hours FROM ads WHERE id = $1 AND campaign_id = $2 FOR UPDATE`,
			adID, campaignID).Scan(&capViews, &capHours)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ad %d: %w", adID, port.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if capViews <= 0 || capHours <= 0 {
			return fmt.Errorf("ad %d: views=%d hours=%d: %w", adID, capViews, capHours, port.ErrBadCapConfig)
		}

		since := now.Add(-time.Duration(capHours) * time.Hour)
		var count int64
		err = tx.QueryRow(ctx,
			`SELECT count(*) FROM ad_views WHERE viewer_id = $1 AND ad_id = $2 AND viewed_at >= $3`,
			viewerID, adID, since).Scan(&count)
		if err != nil {
			return err
		}
		if count >= int64(capViews) {
			return port.ErrFrequencyCapped
		}

		if err = chargeCampaign(ctx, tx, camp, amount, now); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO ad_views (viewer_id, ad_id, viewed_at) VALUES ($1, $2, $3)`,
			viewerID, adID, now); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx,
			`UPDATE ads SET impressions = impressions + 1, updated_at = now() WHERE id = $1`, adID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO charges (campaign_id, ad_id, kind, amount, viewer_id, created_at)
			 VALUES ($1, $2, 'impression', $3, $4, $5)`,
			campaignID, adID, amount, viewerID, now)
		return err
	})
}

// CommitClick re-checks the budget and applies the spend counters, the
// click counter and the charge ledger row in one transaction. Clicks
// are not frequency capped and insert no view record.
func (r *LedgerRepository) CommitClick(ctx context.Context, campaignID, adID int64, amount int64, now time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		camp, err := lockCampaign(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		if err = chargeCampaign(ctx, tx, camp, amount, now); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx,
			`UPDATE ads SET clicks = clicks + 1, updated_at = now() WHERE id = $1 AND campaign_id = $2`,
			adID, campaignID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("ad %d: %w", adID, port.ErrNotFound)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO charges (campaign_id, ad_id, kind, amount, created_at)
			 VALUES ($1, $2, 'click', $3, $4)`,
			campaignID, adID, amount, now)
		return err
	})
}

// Stats aggregates committed charges for a period.
func (r *LedgerRepository) Stats(ctx context.Context, req port.StatsReq) (*port.StatsResp, error) {
	args := []any{req.From, req.To}
	whereCampaign := ""
	if req.CampaignID != nil {
		whereCampaign = "AND campaign_id = $3"
		args = append(args, *req.CampaignID)
	}
	query := fmt.Sprintf(`SELECT
			count(*) FILTER (WHERE kind = 'impression'),
			count(*) FILTER (WHERE kind = 'click'),
			COALESCE(sum(amount), 0)
		FROM charges WHERE created_at >= $1 AND created_at <= $2 %s`, whereCampaign)
	var resp port.StatsResp
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&resp.Impressions, &resp.Clicks, &resp.Spend); err != nil {
		return nil, storeErr(err)
	}
	return &resp, nil
}

// lockCampaign reads the campaign's budget state under FOR UPDATE.
func lockCampaign(ctx context.Context, tx pgx.Tx, id int64) (*domain.Campaign, error) {
	c := &domain.Campaign{ID: id}
	err := tx.QueryRow(ctx,
		`SELECT total_budget, daily_spend_limit, spent_total, spent_today, last_spend_day
		 FROM campaigns WHERE id = $1 FOR UPDATE`, id).
		Scan(&c.TotalBudget, &c.DailySpendLimit, &c.SpentTotal, &c.SpentToday, &c.LastSpendDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// chargeCampaign rolls the daily counter over the UTC day boundary if
// needed, evaluates the charge against both budgets and writes the new
// counters. The caller holds the row lock.
func chargeCampaign(ctx context.Context, tx pgx.Tx, c *domain.Campaign, amount int64, now time.Time) error {
	domain.Rollover(c, now)
	prop := domain.TryCharge(c, amount)
	if !prop.Accepted {
		return port.ErrBudgetExhausted
	}
	_, err := tx.Exec(ctx,
		`UPDATE campaigns SET spent_total = $1, spent_today = $2, last_spend_day = $3, updated_at = now()
		 WHERE id = $4`,
		prop.NewSpentTotal, prop.NewSpentToday, c.LastSpendDay, c.ID)
	return err
}

// inTx runs fn in a serializable transaction, rolling back on error.
// Denial sentinels pass through untouched; everything else is treated
// as a store failure so the engine can retry once.
func (r *LedgerRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return storeErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		if isDenial(err) {
			return err
		}
		return storeErr(err)
	}
	if err = tx.Commit(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

func isDenial(err error) bool {
	return errors.Is(err, port.ErrBudgetExhausted) ||
		errors.Is(err, port.ErrFrequencyCapped) ||
		errors.Is(err, port.ErrNotFound) ||
		errors.Is(err, port.ErrBadCapConfig)
}

// storeErr classifies repository failures. Serialization failures and
// connection-level errors are transient; the engine retries them once
// and then fails closed.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return fmt.Errorf("serialization failure: %w", port.ErrStoreUnavailable)
	}
	return fmt.Errorf("%v: %w", err, port.ErrStoreUnavailable)
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.TotalBudget, &c.DailySpendLimit,
		&c.SpentTotal, &c.SpentToday, &c.LastSpendDay, &c.Status,
		&c.StartTime, &c.EndTime, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanAd(row pgx.Row) (*domain.Ad, error) {
	var a domain.Ad
	err := row.Scan(
		&a.ID, &a.CampaignID, &a.Name, &a.BidPerImpression, &a.BidPerClick,
		&a.FreqCapViews, &a.FreqCapHours, &a.Targeting, &a.Status,
		&a.Impressions, &a.Clicks, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
