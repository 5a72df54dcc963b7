// Package finance derives every dashboard figure from the raw ledger and
// keeps one snapshot per user per local day.
package finance

import (
	"context"
	"errors"

	"budget/internal/core"
	applog "budget/internal/log"
)

// LedgerReader is the read side of the expense/earning/account store.
type LedgerReader interface {
	// GetAccount returns nil, nil when the user does not exist.
	GetAccount(ctx context.Context, username string) (*core.Account, error)
	// ListExpenses returns matching rows ordered by timestamp ascending.
	ListExpenses(ctx context.Context, username string, filter core.ExpenseFilter) ([]core.Expense, error)
	// ListEarnings returns matching rows ordered by timestamp ascending.
	ListEarnings(ctx context.Context, username string, filter core.EarningFilter) ([]core.Earning, error)
}

// SnapshotReader reads persisted snapshots.
type SnapshotReader interface {
	// GetSnapshot returns nil, nil when no snapshot exists for that day.
	GetSnapshot(ctx context.Context, username, localDay string) (*core.FinancialOverview, error)
}

// SnapshotTx is the snapshot store scoped to one transaction.
type SnapshotTx interface {
	SnapshotReader
	// InsertSnapshot sets snap.ID. A duplicate (username, local_day) yields
	// core.ErrSnapshotConflict.
	InsertSnapshot(ctx context.Context, snap *core.FinancialOverview) error
	UpdateSnapshot(ctx context.Context, snap *core.FinancialOverview) error
}

// SnapshotStore persists snapshots. InTx commits when fn returns nil.
type SnapshotStore interface {
	SnapshotReader
	InTx(ctx context.Context, fn func(tx SnapshotTx) error) error
}

// Publisher is notified after a snapshot is created or changed.
type Publisher interface {
	PublishOverviewUpdated(ctx context.Context, snap core.FinancialOverview) error
}

// Engine holds no state of its own; the stores it reads are injected.
type Engine struct {
	ledger    LedgerReader
	snapshots SnapshotStore
	publisher Publisher
	clock     core.Clock
	logger    *applog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets the snapshot change publisher.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithLogger sets the engine logger.
func WithLogger(l *applog.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(applog.ComponentEngine) }
}

// NewEngine builds an engine. snapshots may be nil for read-only use; the
// carryover then counts as zero and ReconcileAndPersist is unavailable.
func NewEngine(ledger LedgerReader, snapshots SnapshotStore, clock core.Clock, opts ...Option) *Engine {
	e := &Engine{
		ledger:    ledger,
		snapshots: snapshots,
		clock:     clock,
		logger:    applog.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's day boundary calculator.
func (e *Engine) Clock() core.Clock { return e.clock }

// guard turns a corrupt-record failure into a zero for that aggregate only.
// Any other error is returned unchanged.
func (e *Engine) guard(ctx context.Context, username, aggregate string, v float64, err error) (float64, error) {
	if err == nil {
		return core.Round2(v), nil
	}
	if errors.Is(err, core.ErrCorruptRecord) {
		e.logger.WarnContext(ctx, "Aggregate zeroed due to corrupt ledger record",
			applog.FieldUsername, username,
			applog.FieldAggregate, aggregate,
			applog.FieldError, err)
		return 0, nil
	}
	return 0, err
}
