package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

// ErrDuplicate is returned when a unique key already exists.
var ErrDuplicate = errors.New("duplicate record")

const accountColumns = `id, username, password_hash, email, monthly_savings_goal, spending_limit, created_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a       core.Account
		created string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email,
		&a.MonthlySavingsGoal, &a.SpendingLimit, &created); err != nil {
		return a, err
	}
	t, err := parseTS(created)
	if err != nil {
		return a, err
	}
	a.CreatedAt = t
	return a, nil
}

// CreateAccount inserts a and sets its ID and CreatedAt.
func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Second)

	err := r.db.QueryRowContext(ctx, r.q(`
		INSERT INTO accounts (username, password_hash, email, monthly_savings_goal, spending_limit, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		a.Username, a.PasswordHash, a.Email, a.MonthlySavingsGoal, a.SpendingLimit, formatTS(a.CreatedAt),
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %s: %w", a.Username, ErrDuplicate)
		}
		return fmt.Errorf("create account: %w", err)
	}

	r.logger.InfoContext(ctx, "Account created",
		applog.FieldUsername, a.Username,
		"id", a.ID)
	return nil
}

// GetAccount returns nil, nil when no account matches.
func (r *Repository) GetAccount(ctx context.Context, username string) (*core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		r.q(`SELECT `+accountColumns+` FROM accounts WHERE username = ?`), username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", username, err)
	}
	return &a, nil
}

// ListAccounts returns all accounts ordered by username.
func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) updateAccountField(ctx context.Context, username, column string, v float64) error {
	res, err := r.db.ExecContext(ctx, r.q(`UPDATE accounts SET `+column+` = ? WHERE username = ?`), v, username)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return requireAffected(res, core.ErrAccountNotFound)
}

// UpdateSavingsGoal sets the monthly savings goal.
func (r *Repository) UpdateSavingsGoal(ctx context.Context, username string, goal float64) error {
	if !core.Finite(goal) || goal < 0 {
		return core.ErrNegativeGoal
	}
	return r.updateAccountField(ctx, username, "monthly_savings_goal", goal)
}

// UpdateSpendingLimit sets the manual daily limit adjustment. Negative
// values are allowed.
func (r *Repository) UpdateSpendingLimit(ctx context.Context, username string, adjustment float64) error {
	if !core.Finite(adjustment) {
		return core.ErrInvalidAmount
	}
	return r.updateAccountField(ctx, username, "spending_limit", adjustment)
}
