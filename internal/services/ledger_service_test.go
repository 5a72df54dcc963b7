package services

import (
	"context"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	accounts map[string]*core.Account
	expenses map[int64]core.Expense
	earnings map[int64]core.Earning
	nextID   int64
}

func newMemStore(users ...string) *memStore {
	s := &memStore{
		accounts: map[string]*core.Account{},
		expenses: map[int64]core.Expense{},
		earnings: map[int64]core.Earning{},
	}
	for _, u := range users {
		s.accounts[u] = &core.Account{Username: u}
	}
	return s
}

func (m *memStore) GetAccount(_ context.Context, u string) (*core.Account, error) {
	return m.accounts[u], nil
}

func (m *memStore) CreateAccount(_ context.Context, a *core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	m.accounts[a.Username] = a
	return nil
}

func (m *memStore) UpdateSavingsGoal(_ context.Context, u string, goal float64) error {
	a, ok := m.accounts[u]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.MonthlySavingsGoal = goal
	return nil
}

func (m *memStore) UpdateSpendingLimit(_ context.Context, u string, v float64) error {
	a, ok := m.accounts[u]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.SpendingLimit = v
	return nil
}

func (m *memStore) CreateExpense(_ context.Context, e *core.Expense) error {
	m.nextID++
	e.ID = m.nextID
	m.expenses[e.ID] = *e
	return nil
}

func (m *memStore) GetExpense(_ context.Context, u string, id int64) (core.Expense, error) {
	e, ok := m.expenses[id]
	if !ok || e.Username != u {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (m *memStore) UpdateExpense(_ context.Context, e *core.Expense) error {
	m.expenses[e.ID] = *e
	return nil
}

func (m *memStore) DeleteExpense(_ context.Context, u string, id int64) error {
	if e, ok := m.expenses[id]; !ok || e.Username != u {
		return core.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *memStore) ListExpenses(_ context.Context, u string, _ core.ExpenseFilter) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range m.expenses {
		if e.Username == u {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) CreateEarning(_ context.Context, e *core.Earning) error {
	m.nextID++
	e.ID = m.nextID
	m.earnings[e.ID] = *e
	return nil
}

func (m *memStore) DeleteEarning(_ context.Context, u string, id int64) error {
	if e, ok := m.earnings[id]; !ok || e.Username != u {
		return core.ErrNotFound
	}
	delete(m.earnings, id)
	return nil
}

func (m *memStore) ListEarnings(_ context.Context, u string, _ core.EarningFilter) ([]core.Earning, error) {
	var out []core.Earning
	for _, e := range m.earnings {
		if e.Username == u {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestLedgerServiceExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore("alice")
	inv := &countingInvalidator{}
	svc := NewLedgerService(store, inv, nil)

	e := &core.Expense{Username: "alice", Name: "coffee", Price: 3.5, Timestamp: time.Now()}
	require.NoError(t, svc.AddExpense(ctx, e))
	assert.NotZero(t, e.ID)

	e.Price = 4
	require.NoError(t, svc.UpdateExpense(ctx, e))
	assert.Equal(t, 4.0, store.expenses[e.ID].Price)

	stolen := *e
	stolen.Username = "mallory"
	assert.ErrorIs(t, svc.UpdateExpense(ctx, &stolen), core.ErrNotFound)

	require.NoError(t, svc.DeleteExpense(ctx, "alice", e.ID))
	assert.ErrorIs(t, svc.DeleteExpense(ctx, "alice", e.ID), core.ErrNotFound)

	assert.Equal(t, []string{"alice", "alice", "alice"}, inv.users)
}

func TestLedgerServiceRejectsInvalidWrites(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(newMemStore("alice"), nil, nil)

	tests := []struct {
		name string
		err  error
		run  func() error
	}{
		{"negative price", core.ErrInvalidAmount, func() error {
			return svc.AddExpense(ctx, &core.Expense{Username: "alice", Name: "x", Price: -2, Timestamp: time.Now()})
		}},
		{"empty name", core.ErrEmptyName, func() error {
			return svc.AddExpense(ctx, &core.Expense{Username: "alice", Name: "  ", Price: 2, Timestamp: time.Now()})
		}},
		{"unknown account", core.ErrAccountNotFound, func() error {
			return svc.AddExpense(ctx, &core.Expense{Username: "ghost", Name: "x", Price: 2, Timestamp: time.Now()})
		}},
		{"zero earning", core.ErrInvalidAmount, func() error {
			return svc.AddEarning(ctx, &core.Earning{Username: "alice", Timestamp: time.Now()})
		}},
		{"negative goal", core.ErrNegativeGoal, func() error {
			return svc.SetSavingsGoal(ctx, "alice", -10)
		}},
		{"goal for unknown account", core.ErrAccountNotFound, func() error {
			return svc.SetSavingsGoal(ctx, "ghost", 10)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.err)
		})
	}
}

func TestLedgerServiceAccountSettings(t *testing.T) {
	ctx := context.Background()
	store := newMemStore("alice")
	inv := &countingInvalidator{}
	svc := NewLedgerService(store, inv, nil)

	require.NoError(t, svc.SetSavingsGoal(ctx, "alice", 500))
	require.NoError(t, svc.SetSpendingLimit(ctx, "alice", -20))
	assert.Equal(t, 500.0, store.accounts["alice"].MonthlySavingsGoal)
	assert.Equal(t, -20.0, store.accounts["alice"].SpendingLimit)
	assert.Len(t, inv.users, 2)

	earning := &core.Earning{Username: "alice", Salary: 52000, Timestamp: time.Now()}
	require.NoError(t, svc.AddEarning(ctx, earning))
	list, err := svc.ListEarnings(ctx, "alice", core.EarningFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, svc.DeleteEarning(ctx, "alice", earning.ID))
}
