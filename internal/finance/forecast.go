package finance

import (
	"context"
	"fmt"

	"budget/internal/core"
)

// forecastWindow is how many of the most recent expenses feed the mean.
const forecastWindow = 6

func flat(v float64) []float64 {
	out := make([]float64, core.ForecastPeriods)
	for i := range out {
		out[i] = core.Round2(v)
	}
	return out
}

// ExpenseMean is the sum of the last six expenses by timestamp divided by
// six, so a short history is spread over the full window. No history is 0.
func (e *Engine) ExpenseMean(ctx context.Context, username string) (float64, error) {
	rows, err := e.ledger.ListExpenses(ctx, username, core.ExpenseFilter{})
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	if len(rows) > forecastWindow {
		rows = rows[len(rows)-forecastWindow:]
	}
	var v float64
	if len(rows) > 0 {
		v, err = sumPrices(rows)
		v /= forecastWindow
	}
	return e.guard(ctx, username, "expense_mean", v, err)
}

// TotalHistoricalEarnings sums every wage row plus each salary row's
// monthly equivalent.
func (e *Engine) TotalHistoricalEarnings(ctx context.Context, username string) (float64, error) {
	rows, err := e.ledger.ListEarnings(ctx, username, core.EarningFilter{})
	if err != nil {
		return 0, fmt.Errorf("list earnings: %w", err)
	}
	total, err := sumWages(rows)
	if err == nil {
		for _, r := range rows {
			if !core.Finite(r.Salary) {
				err = fmt.Errorf("earning %d salary: %w", r.ID, core.ErrCorruptRecord)
				break
			}
			total += r.Salary / core.MonthsPerYear
		}
	}
	return e.guard(ctx, username, "total_historical_earnings", total, err)
}

// GenerateForecasts returns six flat periods each for expenses, earnings
// and their difference.
func (e *Engine) GenerateForecasts(ctx context.Context, username string) (core.Forecast, error) {
	mean, err := e.ExpenseMean(ctx, username)
	if err != nil {
		return core.Forecast{}, err
	}
	total, err := e.TotalHistoricalEarnings(ctx, username)
	if err != nil {
		return core.Forecast{}, err
	}

	f := core.Forecast{
		Expense:  flat(mean),
		Earnings: flat(total / core.ForecastPeriods),
		Savings:  make([]float64, core.ForecastPeriods),
	}
	for i := range f.Savings {
		f.Savings[i] = core.Round2(f.Earnings[i] - f.Expense[i])
	}
	return f, nil
}
