package finance

import (
	"context"
	"fmt"
	"time"

	"budget/internal/core"
)

func sumWages(rows []core.Earning) (float64, error) {
	var total float64
	for _, r := range rows {
		w, err := r.Wages()
		if err != nil {
			return 0, fmt.Errorf("earning %d: %w", r.ID, err)
		}
		total += w
	}
	return total, nil
}

// latestSalary returns the most recent positive salary at or before now, or 0.
func (e *Engine) latestSalary(ctx context.Context, username string, now time.Time) (float64, error) {
	until := now.UTC()
	rows, err := e.ledger.ListEarnings(ctx, username, core.EarningFilter{Until: &until, SalaryOnly: true})
	if err != nil {
		return 0, fmt.Errorf("list salaries: %w", err)
	}
	var (
		latest float64
		at     time.Time
		found  bool
	)
	for _, r := range rows {
		if r.Salary <= 0 {
			continue
		}
		if !core.Finite(r.Salary) {
			return 0, fmt.Errorf("earning %d salary: %w", r.ID, core.ErrCorruptRecord)
		}
		if !found || !r.Timestamp.Before(at) {
			latest, at, found = r.Salary, r.Timestamp, true
		}
	}
	return latest, nil
}

func (e *Engine) periodEarnings(ctx context.Context, username string, w core.Window, now time.Time, periodsPerYear float64) (float64, error) {
	rows, err := e.ledger.ListEarnings(ctx, username, core.EarningFilter{Window: &w})
	if err != nil {
		return 0, fmt.Errorf("list earnings: %w", err)
	}
	wages, err := sumWages(rows)
	if err != nil {
		return 0, err
	}
	salary, err := e.latestSalary(ctx, username, now)
	if err != nil {
		return 0, err
	}
	return wages + salary/periodsPerYear, nil
}

// MonthlyEarnings is hourly income inside the month window plus one twelfth
// of the latest annual salary.
func (e *Engine) MonthlyEarnings(ctx context.Context, username string, now time.Time) (float64, error) {
	v, err := e.periodEarnings(ctx, username, e.clock.MonthWindow(now), now, core.MonthsPerYear)
	return e.guard(ctx, username, "monthly_earnings", v, err)
}

// DailyEarnings is MonthlyEarnings over 30 days.
func (e *Engine) DailyEarnings(ctx context.Context, username string, now time.Time) (float64, error) {
	monthly, err := e.MonthlyEarnings(ctx, username, now)
	if err != nil {
		return 0, err
	}
	return core.Round2(monthly / core.MonthDays), nil
}

// WeeklyEarnings is hourly income inside the Monday-start week plus one
// fifty-second of the latest annual salary.
func (e *Engine) WeeklyEarnings(ctx context.Context, username string, now time.Time) (float64, error) {
	v, err := e.periodEarnings(ctx, username, e.clock.WeekWindow(now), now, core.WeeksPerYear)
	return e.guard(ctx, username, "weekly_earnings", v, err)
}
