package domain

import "time"

// ChargeProposal is the outcome of evaluating a prospective charge
// against a campaign's budgets. On accept it carries the counters the
// ledger should commit; the guard itself never writes.
type ChargeProposal struct {
	Accepted      bool
	NewSpentTotal int64
	NewSpentToday int64
}

// TryCharge checks whether charging amount against the campaign keeps
// SpentTotal within TotalBudget and, when a daily limit is set,
// SpentToday within DailySpendLimit. The caller is responsible for
// having rolled SpentToday over the day boundary first.
func TryCharge(c *Campaign, amount int64) ChargeProposal {
	newTotal := c.SpentTotal + amount
	newToday := c.SpentToday + amount
	if newTotal > c.TotalBudget {
		return ChargeProposal{}
	}
	if c.DailySpendLimit != nil && newToday > *c.DailySpendLimit {
		return ChargeProposal{}
	}
	return ChargeProposal{
		Accepted:      true,
		NewSpentTotal: newTotal,
		NewSpentToday: newToday,
	}
}

// UnderCap reports whether one more view is admissible given the number
// of admitted views already inside the ad's sliding window.
func UnderCap(a *Ad, recentViews int64) bool {
	return recentViews < int64(a.FreqCapViews)
}

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Rollover resets the campaign's daily counter when now falls on a
// later UTC day than the one SpentToday belongs to. The ledger applies
// it inside its commit transaction; anything evaluating TryCharge on a
// loaded copy must apply it first, or a stale counter from yesterday
// reads as exhausted.
func Rollover(c *Campaign, now time.Time) {
	day := DayOf(now)
	if day.After(c.LastSpendDay) {
		c.SpentToday = 0
		c.LastSpendDay = day
	}
}
