package finance

import (
	"context"
	"sort"
	"sync"
	"time"

	"budget/internal/core"
)

type memLedger struct {
	accounts map[string]*core.Account
	expenses []core.Expense
	earnings []core.Earning
	err      error
}

func newMemLedger() *memLedger {
	return &memLedger{accounts: map[string]*core.Account{}}
}

func (m *memLedger) addAccount(a core.Account) {
	m.accounts[a.Username] = &a
}

func (m *memLedger) addExpense(username, name string, price float64, repeating bool, at time.Time) {
	m.expenses = append(m.expenses, core.Expense{
		ID: int64(len(m.expenses) + 1), Username: username, Name: name,
		Price: price, Repeating: repeating, Timestamp: at,
	})
}

func (m *memLedger) addEarning(e core.Earning) {
	e.ID = int64(len(m.earnings) + 1)
	m.earnings = append(m.earnings, e)
}

func (m *memLedger) GetAccount(_ context.Context, username string) (*core.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[username]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memLedger) ListExpenses(_ context.Context, username string, f core.ExpenseFilter) ([]core.Expense, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []core.Expense
	for _, e := range m.expenses {
		if e.Username != username {
			continue
		}
		if f.Window != nil && !f.Window.Contains(e.Timestamp) {
			continue
		}
		if f.Repeating != nil && e.Repeating != *f.Repeating {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memLedger) ListEarnings(_ context.Context, username string, f core.EarningFilter) ([]core.Earning, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []core.Earning
	for _, e := range m.earnings {
		if e.Username != username {
			continue
		}
		if f.Window != nil && !f.Window.Contains(e.Timestamp) {
			continue
		}
		if f.Until != nil && e.Timestamp.After(*f.Until) {
			continue
		}
		if f.SalaryOnly && e.Salary <= 0 {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type memSnapshots struct {
	mu       sync.Mutex
	rows     map[string]core.FinancialOverview
	nextID   int64
	writes   int
	txErr    error
	onInsert func(s *memSnapshots, snap core.FinancialOverview) error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{rows: map[string]core.FinancialOverview{}}
}

func key(username, day string) string { return username + "|" + day }

func (s *memSnapshots) put(snap core.FinancialOverview) {
	s.nextID++
	snap.ID = s.nextID
	s.rows[key(snap.Username, snap.LocalDay)] = snap
}

func (s *memSnapshots) get(username, day string) *core.FinancialOverview {
	snap, ok := s.rows[key(username, day)]
	if !ok {
		return nil
	}
	return &snap
}

func (s *memSnapshots) GetSnapshot(_ context.Context, username, day string) (*core.FinancialOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(username, day), nil
}

func (s *memSnapshots) InTx(_ context.Context, fn func(SnapshotTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txErr != nil {
		return s.txErr
	}
	return fn(memTx{s})
}

type memTx struct{ s *memSnapshots }

func (t memTx) GetSnapshot(_ context.Context, username, day string) (*core.FinancialOverview, error) {
	return t.s.get(username, day), nil
}

func (t memTx) InsertSnapshot(_ context.Context, snap *core.FinancialOverview) error {
	if hook := t.s.onInsert; hook != nil {
		t.s.onInsert = nil
		if err := hook(t.s, *snap); err != nil {
			return err
		}
	}
	if t.s.get(snap.Username, snap.LocalDay) != nil {
		return core.ErrSnapshotConflict
	}
	t.s.put(*snap)
	snap.ID = t.s.nextID
	t.s.writes++
	return nil
}

func (t memTx) UpdateSnapshot(_ context.Context, snap *core.FinancialOverview) error {
	t.s.rows[key(snap.Username, snap.LocalDay)] = *snap
	t.s.writes++
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []core.FinancialOverview
}

func (p *recordingPublisher) PublishOverviewUpdated(_ context.Context, snap core.FinancialOverview) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, snap)
	return nil
}
