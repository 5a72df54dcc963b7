package services

import (
	"context"
	"fmt"
	"strings"

	"budget/internal/core"
	applog "budget/internal/log"
)

// LedgerStore is the persistence the ledger service writes through.
type LedgerStore interface {
	GetAccount(ctx context.Context, username string) (*core.Account, error)
	CreateAccount(ctx context.Context, a *core.Account) error
	UpdateSavingsGoal(ctx context.Context, username string, goal float64) error
	UpdateSpendingLimit(ctx context.Context, username string, adjustment float64) error

	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, username string, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, username string, id int64) error
	ListExpenses(ctx context.Context, username string, filter core.ExpenseFilter) ([]core.Expense, error)

	CreateEarning(ctx context.Context, e *core.Earning) error
	DeleteEarning(ctx context.Context, username string, id int64) error
	ListEarnings(ctx context.Context, username string, filter core.EarningFilter) ([]core.Earning, error)
}

// Invalidator drops cached derived data for a user.
type Invalidator interface {
	Invalidate(username string) int
}

// LedgerService validates ledger writes and keeps derived caches honest.
type LedgerService struct {
	store  LedgerStore
	cache  Invalidator
	logger *applog.Logger
}

// NewLedgerService builds a service. cache may be nil.
func NewLedgerService(store LedgerStore, cache Invalidator, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LedgerService{
		store:  store,
		cache:  cache,
		logger: logger.WithComponent(applog.ComponentLedger),
	}
}

func (s *LedgerService) invalidate(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.Invalidate(username); n > 0 {
		s.logger.DebugContext(ctx, "Dashboard cache invalidated",
			applog.FieldUsername, username,
			"entries", n)
	}
}

func (s *LedgerService) requireAccount(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return core.ErrEmptyUsername
	}
	a, err := s.store.GetAccount(ctx, username)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if a == nil {
		return core.ErrAccountNotFound
	}
	return nil
}

// CreateAccount registers a new account.
func (s *LedgerService) CreateAccount(ctx context.Context, a *core.Account) error {
	a.Username = strings.TrimSpace(a.Username)
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return err
	}
	return nil
}

// AddExpense records an expense for its owner.
func (s *LedgerService) AddExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.requireAccount(ctx, e.Username); err != nil {
		return err
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return fmt.Errorf("save expense: %w", err)
	}
	s.invalidate(ctx, e.Username)
	return nil
}

// UpdateExpense overwrites an existing expense. The stored row must belong
// to e.Username.
func (s *LedgerService) UpdateExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetExpense(ctx, e.Username, e.ID); err != nil {
		return err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.invalidate(ctx, e.Username)
	return nil
}

// DeleteExpense removes an expense owned by username.
func (s *LedgerService) DeleteExpense(ctx context.Context, username string, id int64) error {
	if err := s.store.DeleteExpense(ctx, username, id); err != nil {
		return err
	}
	s.invalidate(ctx, username)
	return nil
}

// ListExpenses returns the user's expenses, oldest first.
func (s *LedgerService) ListExpenses(ctx context.Context, username string, filter core.ExpenseFilter) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, username, filter)
}

// AddEarning records an earning for its owner.
func (s *LedgerService) AddEarning(ctx context.Context, e *core.Earning) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.requireAccount(ctx, e.Username); err != nil {
		return err
	}
	if err := s.store.CreateEarning(ctx, e); err != nil {
		return fmt.Errorf("save earning: %w", err)
	}
	s.invalidate(ctx, e.Username)
	return nil
}

// DeleteEarning removes an earning owned by username.
func (s *LedgerService) DeleteEarning(ctx context.Context, username string, id int64) error {
	if err := s.store.DeleteEarning(ctx, username, id); err != nil {
		return err
	}
	s.invalidate(ctx, username)
	return nil
}

// ListEarnings returns the user's earnings, oldest first.
func (s *LedgerService) ListEarnings(ctx context.Context, username string, filter core.EarningFilter) ([]core.Earning, error) {
	return s.store.ListEarnings(ctx, username, filter)
}

// SetSavingsGoal stores a non-negative monthly savings goal.
func (s *LedgerService) SetSavingsGoal(ctx context.Context, username string, goal float64) error {
	if !core.Finite(goal) || goal < 0 {
		return core.ErrNegativeGoal
	}
	if err := s.store.UpdateSavingsGoal(ctx, username, goal); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Savings goal updated", applog.FieldUsername, username, "goal", goal)
	s.invalidate(ctx, username)
	return nil
}

// SetSpendingLimit stores the manual daily limit adjustment.
func (s *LedgerService) SetSpendingLimit(ctx context.Context, username string, adjustment float64) error {
	if !core.Finite(adjustment) {
		return core.ErrInvalidAmount
	}
	if err := s.store.UpdateSpendingLimit(ctx, username, adjustment); err != nil {
		return err
	}
	s.invalidate(ctx, username)
	return nil
}
