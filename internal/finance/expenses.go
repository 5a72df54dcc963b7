package finance

import (
	"context"
	"fmt"
	"time"

	"budget/internal/core"
)

func priceOf(e core.Expense) (float64, error) {
	if !core.Finite(e.Price) || e.Price <= 0 {
		return 0, fmt.Errorf("expense %d price %v: %w", e.ID, e.Price, core.ErrCorruptRecord)
	}
	return e.Price, nil
}

func sumPrices(rows []core.Expense) (float64, error) {
	var total float64
	for _, r := range rows {
		p, err := priceOf(r)
		if err != nil {
			return 0, err
		}
		total += p
	}
	return total, nil
}

func (e *Engine) sumExpenses(ctx context.Context, username string, filter core.ExpenseFilter) (float64, error) {
	rows, err := e.ledger.ListExpenses(ctx, username, filter)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	return sumPrices(rows)
}

// RepeatingMonthlyTotal is the sum of every repeating expense ever recorded.
// Each repeating entry is a standing monthly obligation regardless of when it
// was entered.
func (e *Engine) RepeatingMonthlyTotal(ctx context.Context, username string) (float64, error) {
	v, err := e.sumExpenses(ctx, username, core.ExpenseFilter{Repeating: core.Bool(true)})
	return e.guard(ctx, username, "repeating_monthly_total", v, err)
}

// NonRepeatingTotal sums one-off expenses inside w.
func (e *Engine) NonRepeatingTotal(ctx context.Context, username string, w core.Window) (float64, error) {
	v, err := e.sumExpenses(ctx, username, core.ExpenseFilter{Window: &w, Repeating: core.Bool(false)})
	return e.guard(ctx, username, "non_repeating_total", v, err)
}

// DailyPortionOfRepeating spreads the repeating total evenly over a 30 day
// month.
func (e *Engine) DailyPortionOfRepeating(ctx context.Context, username string) (float64, error) {
	total, err := e.RepeatingMonthlyTotal(ctx, username)
	if err != nil {
		return 0, err
	}
	return core.Round2(total / core.MonthDays), nil
}

// TotalSpentOnDay is the local day's one-off spend plus the daily share of
// repeating expenses.
func (e *Engine) TotalSpentOnDay(ctx context.Context, username string, now time.Time) (float64, error) {
	today, err := e.NonRepeatingTotal(ctx, username, e.clock.DayWindow(now))
	if err != nil {
		return 0, err
	}
	portion, err := e.DailyPortionOfRepeating(ctx, username)
	if err != nil {
		return 0, err
	}
	return core.Round2(today + portion), nil
}

// AverageDailyExpenses is the month window's total spend divided by 30.
func (e *Engine) AverageDailyExpenses(ctx context.Context, username string, now time.Time) (float64, error) {
	repeating, err := e.RepeatingMonthlyTotal(ctx, username)
	if err != nil {
		return 0, err
	}
	oneOff, err := e.NonRepeatingTotal(ctx, username, e.clock.MonthWindow(now))
	if err != nil {
		return 0, err
	}
	return core.Round2((repeating + oneOff) / core.MonthDays), nil
}
