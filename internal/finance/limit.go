package finance

import (
	"context"
	"fmt"
	"math"
	"time"

	"budget/internal/core"
)

// LimitInputs are the figures the daily limit is derived from.
type LimitInputs struct {
	MonthlyEarnings       float64
	RepeatingMonthlyTotal float64
	MonthlySavingsGoal    float64
	Carryover             float64
	SpendingLimit         float64
}

// DailyLimit is the breakdown of one day's spending allowance.
type DailyLimit struct {
	DiscretionaryMonthly float64 `json:"discretionary_monthly"`
	Base                 float64 `json:"base"`
	Carryover            float64 `json:"carryover"`
	Adjustment           float64 `json:"adjustment"`
	Total                float64 `json:"total"`
}

// CalculateDailyLimit applies the limit formula. Base and Total never go
// below zero.
func CalculateDailyLimit(in LimitInputs) DailyLimit {
	discretionary := in.MonthlyEarnings - in.RepeatingMonthlyTotal - in.MonthlySavingsGoal
	base := math.Max(0, discretionary/core.MonthDays)
	total := math.Max(0, base+in.Carryover+in.SpendingLimit)
	return DailyLimit{
		DiscretionaryMonthly: core.Round2(discretionary),
		Base:                 core.Round2(base),
		Carryover:            core.Round2(in.Carryover),
		Adjustment:           core.Round2(in.SpendingLimit),
		Total:                core.Round2(total),
	}
}

// UnusedLimit is what is left of limit after spent, floored at zero.
func UnusedLimit(limit, spent float64) float64 {
	return core.Round2(math.Max(0, limit-spent))
}

// Carryover returns yesterday's unused daily limit, or 0 when no snapshot
// exists or no snapshot store is configured.
func (e *Engine) Carryover(ctx context.Context, username string, now time.Time) (float64, error) {
	if e.snapshots == nil {
		return 0, nil
	}
	yesterday := e.clock.LocalDay(e.clock.LocalDayStart(now).Add(-time.Hour))
	snap, err := e.snapshots.GetSnapshot(ctx, username, yesterday)
	if err != nil {
		return 0, fmt.Errorf("get snapshot %s: %w", yesterday, err)
	}
	if snap == nil || !core.Finite(snap.UnusedDailyLimit) {
		return 0, nil
	}
	return snap.UnusedDailyLimit, nil
}

// DailyLimitBreakdown computes the full limit breakdown. A missing account
// yields a zero breakdown.
func (e *Engine) DailyLimitBreakdown(ctx context.Context, username string, now time.Time) (DailyLimit, error) {
	acct, err := e.ledger.GetAccount(ctx, username)
	if err != nil {
		return DailyLimit{}, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		return DailyLimit{}, nil
	}
	return e.dailyLimitFor(ctx, acct, now)
}

func (e *Engine) dailyLimitFor(ctx context.Context, acct *core.Account, now time.Time) (DailyLimit, error) {
	earnings, err := e.MonthlyEarnings(ctx, acct.Username, now)
	if err != nil {
		return DailyLimit{}, err
	}
	repeating, err := e.RepeatingMonthlyTotal(ctx, acct.Username)
	if err != nil {
		return DailyLimit{}, err
	}
	carry, err := e.Carryover(ctx, acct.Username, now)
	if err != nil {
		return DailyLimit{}, err
	}
	return CalculateDailyLimit(LimitInputs{
		MonthlyEarnings:       earnings,
		RepeatingMonthlyTotal: repeating,
		MonthlySavingsGoal:    acct.MonthlySavingsGoal,
		Carryover:             carry,
		SpendingLimit:         acct.SpendingLimit,
	}), nil
}

// ComputeDailyLimit returns today's total daily limit. Unknown users get 0.
func (e *Engine) ComputeDailyLimit(ctx context.Context, username string, now time.Time) (float64, error) {
	limit, err := e.DailyLimitBreakdown(ctx, username, now)
	if err != nil {
		return 0, err
	}
	return limit.Total, nil
}
