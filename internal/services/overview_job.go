package services

import (
	"context"
	"fmt"
	"time"

	"budget/internal/core"
	"budget/internal/finance"
	applog "budget/internal/log"
)

// AccountLister enumerates every account the job should process.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
}

// Reconciler is the engine surface the job drives.
type Reconciler interface {
	ReconcileAndPersist(ctx context.Context, username string, now time.Time) (finance.Reconciliation, error)
	Clock() core.Clock
}

// JobReport summarises one pass over all accounts.
type JobReport struct {
	Accounts  int
	Succeeded int
	Failed    []string
	Outcomes  map[finance.Outcome]int
}

// DailyOverviewJob finalises yesterday's snapshot and opens today's for
// every account. One user's failure never stops the others.
type DailyOverviewJob struct {
	accounts AccountLister
	engine   Reconciler
	cache    Invalidator
	logger   *applog.Logger
}

// NewDailyOverviewJob builds the job. cache may be nil.
func NewDailyOverviewJob(accounts AccountLister, engine Reconciler, cache Invalidator, logger *applog.Logger) *DailyOverviewJob {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DailyOverviewJob{
		accounts: accounts,
		engine:   engine,
		cache:    cache,
		logger:   logger.WithComponent(applog.ComponentJob),
	}
}

// Run processes every account as of now. Only a failure to list accounts or
// a cancelled context is returned as an error.
func (j *DailyOverviewJob) Run(ctx context.Context, now time.Time) (JobReport, error) {
	report := JobReport{Outcomes: map[finance.Outcome]int{}}

	accounts, err := j.accounts.ListAccounts(ctx)
	if err != nil {
		return report, fmt.Errorf("list accounts: %w", err)
	}
	report.Accounts = len(accounts)

	clock := j.engine.Clock()
	// Last instant of the previous local day.
	yesterday := clock.LocalDayStart(now).Add(-time.Nanosecond)

	j.logger.InfoContext(ctx, "Daily overview job started",
		"accounts", len(accounts),
		applog.FieldLocalDay, clock.LocalDay(now))

	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := j.processAccount(ctx, a.Username, yesterday, now)
		if err != nil {
			report.Failed = append(report.Failed, a.Username)
			j.logger.ErrorContext(ctx, "Daily overview failed for user",
				applog.FieldUsername, a.Username,
				applog.FieldError, err)
			continue
		}
		report.Succeeded++
		report.Outcomes[outcome]++
	}

	j.logger.InfoContext(ctx, "Daily overview job complete",
		"succeeded", report.Succeeded,
		"failed", len(report.Failed))
	return report, nil
}

func (j *DailyOverviewJob) processAccount(ctx context.Context, username string, yesterday, now time.Time) (outcome finance.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if _, err := j.engine.ReconcileAndPersist(ctx, username, yesterday); err != nil {
		return "", fmt.Errorf("finalize previous day: %w", err)
	}
	res, err := j.engine.ReconcileAndPersist(ctx, username, now)
	if err != nil {
		return "", fmt.Errorf("reconcile today: %w", err)
	}
	if j.cache != nil {
		j.cache.Invalidate(username)
	}
	return res.Outcome, nil
}
