package finance

import (
	"context"
	"fmt"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

// ComputeOverview returns the dashboard figures as of now. It never writes.
func (e *Engine) ComputeOverview(ctx context.Context, username string, now time.Time) (core.Overview, error) {
	snap, _, err := e.computeSnapshot(ctx, username, now)
	if err != nil {
		return core.Overview{}, err
	}
	return snap.Overview, nil
}

// ComputeSnapshot returns the full snapshot that would be persisted for now.
func (e *Engine) ComputeSnapshot(ctx context.Context, username string, now time.Time) (core.FinancialOverview, error) {
	snap, _, err := e.computeSnapshot(ctx, username, now)
	return snap, err
}

// computeSnapshot reports found=false for an unknown user, with zero figures.
func (e *Engine) computeSnapshot(ctx context.Context, username string, now time.Time) (core.FinancialOverview, bool, error) {
	month := e.clock.MonthWindow(now)
	week := e.clock.WeekWindow(now)
	snap := core.FinancialOverview{
		Username:     username,
		LocalDay:     e.clock.LocalDay(now),
		Timestamp:    now.UTC(),
		StartOfMonth: month.Start,
		EndOfMonth:   month.End,
		StartOfWeek:  week.Start,
		EndOfWeek:    week.End,
	}

	acct, err := e.ledger.GetAccount(ctx, username)
	if err != nil {
		return snap, false, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		e.logger.DebugContext(ctx, "No account, returning zero overview", applog.FieldUsername, username)
		return snap, false, nil
	}

	repeating, err := e.RepeatingMonthlyTotal(ctx, username)
	if err != nil {
		return snap, true, err
	}
	oneOff, err := e.NonRepeatingTotal(ctx, username, month)
	if err != nil {
		return snap, true, err
	}
	earnings, err := e.MonthlyEarnings(ctx, username, now)
	if err != nil {
		return snap, true, err
	}
	weekly, err := e.WeeklyEarnings(ctx, username, now)
	if err != nil {
		return snap, true, err
	}
	spentToday, err := e.TotalSpentOnDay(ctx, username, now)
	if err != nil {
		return snap, true, err
	}
	carry, err := e.Carryover(ctx, username, now)
	if err != nil {
		return snap, true, err
	}

	limit := CalculateDailyLimit(LimitInputs{
		MonthlyEarnings:       earnings,
		RepeatingMonthlyTotal: repeating,
		MonthlySavingsGoal:    acct.MonthlySavingsGoal,
		Carryover:             carry,
		SpendingLimit:         acct.SpendingLimit,
	})

	expenses := core.Round2(repeating + oneOff)
	forecast := core.Round2(earnings - expenses - acct.MonthlySavingsGoal)
	var rate float64
	if earnings > 0 {
		rate = core.Round2(forecast / earnings * 100)
	}

	snap.Overview = core.Overview{
		MonthlyEarnings:             earnings,
		MonthlyExpenses:             expenses,
		MonthlyExpensesRepeating:    repeating,
		MonthlyExpensesNonRepeating: oneOff,
		DailyLimit:                  limit.Total,
		DailyEarnings:               core.Round2(earnings / core.MonthDays),
		TotalMoneySpentToday:        spentToday,
		SavingsRate:                 rate,
		SavingsForecast:             forecast,
		UnusedDailyLimit:            UnusedLimit(limit.Total, spentToday),
	}
	snap.WeeklyEarnings = weekly
	return snap, true, nil
}
