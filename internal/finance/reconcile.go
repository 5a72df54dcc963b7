package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

// Outcome describes what ReconcileAndPersist did to the stored snapshot.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped" // unknown user, nothing stored
)

// Reconciliation is the result of one reconcile pass.
type Reconciliation struct {
	Snapshot core.FinancialOverview
	Outcome  Outcome
}

var (
	// ErrNoSnapshotStore is returned by ReconcileAndPersist on a read-only engine.
	ErrNoSnapshotStore = errors.New("snapshot store not configured")

	// ErrPersist wraps every failure that happened after the snapshot was
	// computed. The returned Reconciliation still carries the fresh figures.
	ErrPersist = errors.New("persist snapshot")
)

// ReconcileAndPersist recomputes today's snapshot and stores it when it is
// new or its figures changed. Repeated calls on the same local day with an
// unchanged ledger leave exactly one untouched row.
//
// When persistence fails the computed snapshot is still returned alongside
// the error.
func (e *Engine) ReconcileAndPersist(ctx context.Context, username string, now time.Time) (Reconciliation, error) {
	fresh, found, err := e.computeSnapshot(ctx, username, now)
	if err != nil {
		return Reconciliation{Snapshot: fresh}, err
	}
	if !found {
		return Reconciliation{Snapshot: fresh, Outcome: OutcomeSkipped}, nil
	}
	if e.snapshots == nil {
		return Reconciliation{Snapshot: fresh}, fmt.Errorf("%w: %w", ErrPersist, ErrNoSnapshotStore)
	}

	var res Reconciliation
	for attempt := 0; attempt < 2; attempt++ {
		res, err = e.persist(ctx, fresh)
		if !errors.Is(err, core.ErrSnapshotConflict) {
			break
		}
		e.logger.DebugContext(ctx, "Concurrent snapshot insert, retrying as update",
			applog.FieldUsername, username,
			applog.FieldLocalDay, fresh.LocalDay)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist snapshot",
			applog.FieldUsername, username,
			applog.FieldLocalDay, fresh.LocalDay,
			applog.FieldError, err)
		return Reconciliation{Snapshot: fresh}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	e.logger.DebugContext(ctx, "Snapshot reconciled",
		applog.FieldUsername, username,
		applog.FieldLocalDay, fresh.LocalDay,
		applog.FieldOutcome, string(res.Outcome))

	if e.publisher != nil && res.Outcome != OutcomeUnchanged {
		if perr := e.publisher.PublishOverviewUpdated(ctx, res.Snapshot); perr != nil {
			e.logger.WarnContext(ctx, "Failed to publish overview update",
				applog.FieldUsername, username,
				applog.FieldError, perr)
		}
	}
	return res, nil
}

func (e *Engine) persist(ctx context.Context, fresh core.FinancialOverview) (Reconciliation, error) {
	var res Reconciliation
	err := e.snapshots.InTx(ctx, func(tx SnapshotTx) error {
		existing, err := tx.GetSnapshot(ctx, fresh.Username, fresh.LocalDay)
		if err != nil {
			return err
		}
		if existing == nil {
			snap := fresh
			if err := tx.InsertSnapshot(ctx, &snap); err != nil {
				return err
			}
			res = Reconciliation{Snapshot: snap, Outcome: OutcomeCreated}
			return nil
		}
		if existing.SameFigures(fresh) {
			res = Reconciliation{Snapshot: *existing, Outcome: OutcomeUnchanged}
			return nil
		}
		snap := fresh
		snap.ID = existing.ID
		if err := tx.UpdateSnapshot(ctx, &snap); err != nil {
			return err
		}
		res = Reconciliation{Snapshot: snap, Outcome: OutcomeUpdated}
		return nil
	})
	return res, err
}
