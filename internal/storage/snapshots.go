package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
	"budget/internal/finance"
	applog "budget/internal/log"
)

const snapshotColumns = `id, username, local_day, timestamp,
	monthly_earnings, monthly_expenses, monthly_expenses_repeating, monthly_expenses_non_repeating,
	daily_limit, daily_earnings, total_money_spent_today, savings_rate, savings_forecast,
	unused_daily_limit, weekly_earnings, start_of_month, end_of_month, start_of_week, end_of_week`

func scanSnapshot(row interface{ Scan(...any) error }) (core.FinancialOverview, error) {
	var (
		s                      core.FinancialOverview
		ts, som, eom, sow, eow string
	)
	err := row.Scan(&s.ID, &s.Username, &s.LocalDay, &ts,
		&s.MonthlyEarnings, &s.MonthlyExpenses, &s.MonthlyExpensesRepeating, &s.MonthlyExpensesNonRepeating,
		&s.DailyLimit, &s.DailyEarnings, &s.TotalMoneySpentToday, &s.SavingsRate, &s.SavingsForecast,
		&s.UnusedDailyLimit, &s.WeeklyEarnings, &som, &eom, &sow, &eow)
	if err != nil {
		return s, err
	}
	if s.Timestamp, err = parseTS(ts); err != nil {
		return s, err
	}
	if s.StartOfMonth, err = parseTS(som); err != nil {
		return s, err
	}
	if s.EndOfMonth, err = parseTS(eom); err != nil {
		return s, err
	}
	if s.StartOfWeek, err = parseTS(sow); err != nil {
		return s, err
	}
	if s.EndOfWeek, err = parseTS(eow); err != nil {
		return s, err
	}
	return s, nil
}

// snapshotQueries runs snapshot statements against a DB or a Tx.
type snapshotQueries struct {
	q       querier
	dialect Dialect
}

func (s snapshotQueries) GetSnapshot(ctx context.Context, username, localDay string) (*core.FinancialOverview, error) {
	snap, err := scanSnapshot(s.q.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT `+snapshotColumns+` FROM financial_overview WHERE username = ? AND local_day = ?`),
		username, localDay))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s/%s: %w", username, localDay, err)
	}
	return &snap, nil
}

func snapshotValues(snap *core.FinancialOverview) []any {
	return []any{
		formatTS(snap.Timestamp),
		snap.MonthlyEarnings, snap.MonthlyExpenses, snap.MonthlyExpensesRepeating, snap.MonthlyExpensesNonRepeating,
		snap.DailyLimit, snap.DailyEarnings, snap.TotalMoneySpentToday, snap.SavingsRate, snap.SavingsForecast,
		snap.UnusedDailyLimit, snap.WeeklyEarnings,
		formatTS(snap.StartOfMonth), formatTS(snap.EndOfMonth), formatTS(snap.StartOfWeek), formatTS(snap.EndOfWeek),
	}
}

func (s snapshotQueries) InsertSnapshot(ctx context.Context, snap *core.FinancialOverview) error {
	args := append([]any{snap.Username, snap.LocalDay}, snapshotValues(snap)...)
	err := s.q.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO financial_overview (username, local_day, timestamp,
			monthly_earnings, monthly_expenses, monthly_expenses_repeating, monthly_expenses_non_repeating,
			daily_limit, daily_earnings, total_money_spent_today, savings_rate, savings_forecast,
			unused_daily_limit, weekly_earnings, start_of_month, end_of_month, start_of_week, end_of_week)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`), args...).Scan(&snap.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrSnapshotConflict
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s snapshotQueries) UpdateSnapshot(ctx context.Context, snap *core.FinancialOverview) error {
	args := append(snapshotValues(snap), snap.ID)
	res, err := s.q.ExecContext(ctx, s.dialect.rebind(`
		UPDATE financial_overview SET timestamp = ?,
			monthly_earnings = ?, monthly_expenses = ?, monthly_expenses_repeating = ?, monthly_expenses_non_repeating = ?,
			daily_limit = ?, daily_earnings = ?, total_money_spent_today = ?, savings_rate = ?, savings_forecast = ?,
			unused_daily_limit = ?, weekly_earnings = ?,
			start_of_month = ?, end_of_month = ?, start_of_week = ?, end_of_week = ?
		WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("update snapshot %d: %w", snap.ID, err)
	}
	return requireAffected(res, core.ErrNotFound)
}

// GetSnapshot returns nil, nil when no snapshot exists for the day.
func (r *Repository) GetSnapshot(ctx context.Context, username, localDay string) (*core.FinancialOverview, error) {
	return snapshotQueries{q: r.db, dialect: r.dialect}.GetSnapshot(ctx, username, localDay)
}

// ListSnapshots returns up to limit snapshots, newest local day first.
func (r *Repository) ListSnapshots(ctx context.Context, username string, limit int) ([]core.FinancialOverview, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+snapshotColumns+`
		FROM financial_overview WHERE username = ? ORDER BY local_day DESC LIMIT ?`), username, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.FinancialOverview
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InTx runs fn in a transaction, committing when it returns nil.
func (r *Repository) InTx(ctx context.Context, fn func(tx finance.SnapshotTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(snapshotQueries{q: tx, dialect: r.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.WarnContext(ctx, "Rollback failed", applog.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return core.ErrSnapshotConflict
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var (
	_ finance.LedgerReader  = (*Repository)(nil)
	_ finance.SnapshotStore = (*Repository)(nil)
)
