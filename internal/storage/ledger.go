package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

const (
	expenseColumns = `id, username, name, price, repeating, timestamp`
	earningColumns = `id, username, hourly_rate, hours, cash_tips, salary, timestamp`
)

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) window(win *core.Window) {
	if win == nil {
		return
	}
	w.add("timestamp >= ?", formatTS(win.Start))
	if win.Closed {
		w.add("timestamp <= ?", formatTS(win.End))
	} else {
		w.add("timestamp < ?", formatTS(win.End))
	}
}

func (w *where) String() string {
	return strings.Join(w.conds, " AND ")
}

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e  core.Expense
		ts string
	)
	if err := row.Scan(&e.ID, &e.Username, &e.Name, &e.Price, &e.Repeating, &ts); err != nil {
		return e, err
	}
	t, err := parseTS(ts)
	if err != nil {
		return e, err
	}
	e.Timestamp = t
	return e, nil
}

func scanEarning(row interface{ Scan(...any) error }) (core.Earning, error) {
	var (
		e  core.Earning
		ts string
	)
	if err := row.Scan(&e.ID, &e.Username, &e.HourlyRate, &e.Hours, &e.CashTips, &e.Salary, &ts); err != nil {
		return e, err
	}
	t, err := parseTS(ts)
	if err != nil {
		return e, err
	}
	e.Timestamp = t
	return e, nil
}

// CreateExpense validates and inserts e, setting its ID.
func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Second)

	err := r.db.QueryRowContext(ctx, r.q(`
		INSERT INTO expenses (username, name, price, repeating, timestamp)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		e.Username, strings.TrimSpace(e.Name), e.Price, e.Repeating, formatTS(e.Timestamp),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense saved",
		applog.FieldUsername, e.Username,
		"id", e.ID,
		"price", e.Price,
		"repeating", e.Repeating)
	return nil
}

// GetExpense returns core.ErrNotFound when id is not owned by username.
func (r *Repository) GetExpense(ctx context.Context, username string, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx,
		r.q(`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND username = ?`), id, username))
	if errors.Is(err, sql.ErrNoRows) {
		return e, core.ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// UpdateExpense overwrites the mutable fields of an existing expense.
func (r *Repository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Second)

	res, err := r.db.ExecContext(ctx, r.q(`
		UPDATE expenses SET name = ?, price = ?, repeating = ?, timestamp = ?
		WHERE id = ? AND username = ?`),
		strings.TrimSpace(e.Name), e.Price, e.Repeating, formatTS(e.Timestamp), e.ID, e.Username)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return requireAffected(res, core.ErrNotFound)
}

// DeleteExpense removes an expense owned by username.
func (r *Repository) DeleteExpense(ctx context.Context, username string, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM expenses WHERE id = ? AND username = ?`), id, username)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return requireAffected(res, core.ErrNotFound)
}

// ListExpenses returns matching expenses ordered by timestamp then id.
func (r *Repository) ListExpenses(ctx context.Context, username string, filter core.ExpenseFilter) ([]core.Expense, error) {
	w := &where{}
	w.add("username = ?", username)
	w.window(filter.Window)
	if filter.Repeating != nil {
		w.add("repeating = ?", *filter.Repeating)
	}

	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT `+expenseColumns+` FROM expenses WHERE `+w.String()+` ORDER BY timestamp, id`), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateEarning validates and inserts e, setting its ID.
func (r *Repository) CreateEarning(ctx context.Context, e *core.Earning) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Second)

	err := r.db.QueryRowContext(ctx, r.q(`
		INSERT INTO earnings (username, hourly_rate, hours, cash_tips, salary, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		e.Username, e.HourlyRate, e.Hours, e.CashTips, e.Salary, formatTS(e.Timestamp),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create earning: %w", err)
	}

	r.logger.InfoContext(ctx, "Earning saved",
		applog.FieldUsername, e.Username,
		"id", e.ID)
	return nil
}

// DeleteEarning removes an earning owned by username.
func (r *Repository) DeleteEarning(ctx context.Context, username string, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM earnings WHERE id = ? AND username = ?`), id, username)
	if err != nil {
		return fmt.Errorf("delete earning %d: %w", id, err)
	}
	return requireAffected(res, core.ErrNotFound)
}

// ListEarnings returns matching earnings ordered by timestamp then id.
func (r *Repository) ListEarnings(ctx context.Context, username string, filter core.EarningFilter) ([]core.Earning, error) {
	w := &where{}
	w.add("username = ?", username)
	w.window(filter.Window)
	if filter.Until != nil {
		w.add("timestamp <= ?", formatTS(*filter.Until))
	}
	if filter.SalaryOnly {
		w.add("salary > 0")
	}

	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT `+earningColumns+` FROM earnings WHERE `+w.String()+` ORDER BY timestamp, id`), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	defer rows.Close()

	var out []core.Earning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
