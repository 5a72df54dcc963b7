package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/finance"
	"budget/internal/services"
	"budget/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 13:00 local (UTC-5).
var testNow = time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	repo  *storage.Repository
	cache *cache.OverviewCache
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	ctx := context.Background()
	repo, err := storage.Open(ctx, storage.Config{
		Dialect:    storage.DialectSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "budget.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.CreateAccount(ctx, &core.Account{Username: "alice", Email: "alice@example.com"}))

	oc := cache.NewOverviewCache(100, time.Hour)
	engine := finance.NewEngine(repo, repo, core.NewClock(core.DefaultUTCOffset))
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	srv := NewServer(cfg, Deps{
		Engine:    engine,
		Ledger:    services.NewLedgerService(repo, oc, nil),
		Snapshots: repo,
		Store:     repo,
		Cache:     oc,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, repo: repo, cache: oc}
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UsernameHeader, user)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// seed records a 36000 annual salary, 600 rent and a 20 lunch today.
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/earnings", "alice", map[string]any{
		"salary": 36000, "timestamp": testNow.Add(-time.Hour),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{
		"name": "rent", "price": 600, "repeating": true, "timestamp": testNow.AddDate(0, 0, -10),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{
		"name": "lunch", "price": 20, "timestamp": testNow.Add(-time.Hour),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Config{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyReportsStoreFailure(t *testing.T) {
	srv := NewServer(Config{}, Deps{Store: failingPinger{}})
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAPIRequiresUsername(t *testing.T) {
	env := newTestEnv(t, Config{})

	rr := env.do(t, http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, int64(1), env.srv.SecurityStats().Unauthenticated)
}

func TestDashboardReconcilesAndCaches(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.seed(t)

	rr := env.do(t, http.MethodGet, "/api/dashboard", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "created", rr.Header().Get(OutcomeHeader))

	ov := decode[core.Overview](t, rr)
	assert.Equal(t, core.Overview{
		MonthlyEarnings:             3000,
		MonthlyExpenses:             620,
		MonthlyExpensesRepeating:    600,
		MonthlyExpensesNonRepeating: 20,
		DailyLimit:                  80,
		DailyEarnings:               100,
		TotalMoneySpentToday:        40,
		SavingsRate:                 79.33,
		SavingsForecast:             2380,
		UnusedDailyLimit:            40,
	}, ov)

	rr = env.do(t, http.MethodGet, "/api/dashboard", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cached", rr.Header().Get(OutcomeHeader))
	assert.Equal(t, ov, decode[core.Overview](t, rr))

	// A ledger write drops the cached entry and the next call updates the row.
	rr = env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"name": "coffee", "price": 5})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/dashboard", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "updated", rr.Header().Get(OutcomeHeader))
	assert.Equal(t, 45.0, decode[core.Overview](t, rr).TotalMoneySpentToday)

	rr = env.do(t, http.MethodGet, "/api/overviews?days=7", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snaps := decode[[]core.FinancialOverview](t, rr)
	require.Len(t, snaps, 1)
	assert.Equal(t, "2024-03-13", snaps[0].LocalDay)
	assert.Equal(t, 45.0, snaps[0].TotalMoneySpentToday)
}

func TestDashboardUnknownUserIsZero(t *testing.T) {
	env := newTestEnv(t, Config{})

	rr := env.do(t, http.MethodGet, "/api/dashboard", "ghost", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "skipped", rr.Header().Get(OutcomeHeader))
	assert.Equal(t, core.Overview{}, decode[core.Overview](t, rr))
	assert.Zero(t, env.cache.LRU().Size())
}

func TestDailyLimitAndForecast(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.seed(t)

	rr := env.do(t, http.MethodGet, "/api/daily-limit", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"daily_limit": 80}`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/forecast", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	fc := decode[core.Forecast](t, rr)
	assert.Len(t, fc.Expense, core.ForecastPeriods)
	assert.Len(t, fc.Earnings, core.ForecastPeriods)
	assert.Len(t, fc.Savings, core.ForecastPeriods)
	for i := range fc.Savings {
		assert.InDelta(t, fc.Earnings[i]-fc.Expense[i], fc.Savings[i], 0.011)
	}
}

func TestSavingsGoalRecomputes(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.seed(t)

	rr := env.do(t, http.MethodPut, "/api/account/savings-goal", "alice", map[string]any{"goal": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/account/savings-goal", "alice", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/account/savings-goal", "alice", map[string]any{"goal": 300})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	ov := decode[core.Overview](t, rr)
	assert.Equal(t, 70.0, ov.DailyLimit)
	assert.Equal(t, 2080.0, ov.SavingsForecast)

	rr = env.do(t, http.MethodPut, "/api/account/savings-goal", "ghost", map[string]any{"goal": 10})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSpendingLimitMayBeNegative(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.seed(t)

	rr := env.do(t, http.MethodPut, "/api/account/spending-limit", "alice", map[string]any{"adjustment": -30})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 50.0, decode[core.Overview](t, rr).DailyLimit)

	rr = env.do(t, http.MethodPut, "/api/account/spending-limit", "alice", map[string]any{"adjustment": -500})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0.0, decode[core.Overview](t, rr).DailyLimit)
}

func TestExpenseCRUD(t *testing.T) {
	env := newTestEnv(t, Config{})

	rr := env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"name": "", "price": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"name": "x", "price": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/expenses", "alice", `{"name": "x", "price": 5, "colour": "red"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/expenses", "ghost", map[string]any{"name": "x", "price": 5})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"name": "book", "price": 12.5})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[core.Expense](t, rr)
	require.NotZero(t, created.ID)
	assert.True(t, created.Timestamp.Equal(testNow))

	path := fmt.Sprintf("/api/expenses/%d", created.ID)
	rr = env.do(t, http.MethodPut, path, "alice", map[string]any{"name": "books", "price": 15})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "update without timestamp")

	rr = env.do(t, http.MethodPut, path, "alice", map[string]any{
		"name": "books", "price": 15, "repeating": true, "timestamp": testNow,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodPut, path, "bob", map[string]any{"name": "x", "price": 1, "timestamp": testNow})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/expenses?repeating=true", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rows := decode[[]core.Expense](t, rr)
	require.Len(t, rows, 1)
	assert.Equal(t, "books", rows[0].Name)
	assert.Equal(t, 15.0, rows[0].Price)

	rr = env.do(t, http.MethodGet, "/api/expenses?from=2024-03-14", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/expenses?from=2024-03-13&to=2024-03-13", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Expense](t, rr), 1)

	rr = env.do(t, http.MethodGet, "/api/expenses?repeating=maybe", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/expenses/abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEarningCRUD(t *testing.T) {
	env := newTestEnv(t, Config{})

	rr := env.do(t, http.MethodPost, "/api/earnings", "alice", map[string]any{"hourly_rate": -1, "hours": 8})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/earnings", "alice", map[string]any{"hourly_rate": 20, "hours": 8, "cash_tips": 15})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	wage := decode[core.Earning](t, rr)

	rr = env.do(t, http.MethodPost, "/api/earnings", "alice", map[string]any{"salary": 52000})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/earnings", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Earning](t, rr), 2)

	rr = env.do(t, http.MethodGet, "/api/earnings?salary_only=true", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	salaries := decode[[]core.Earning](t, rr)
	require.Len(t, salaries, 1)
	assert.Equal(t, 52000.0, salaries[0].Salary)

	rr = env.do(t, http.MethodDelete, fmt.Sprintf("/api/earnings/%d", wage.ID), "alice", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, http.MethodDelete, fmt.Sprintf("/api/earnings/%d", wage.ID), "alice", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWriteRateLimit(t *testing.T) {
	env := newTestEnv(t, Config{WriteRateLimit: 2})

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"name": "x", "price": 1})
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	rr := env.do(t, http.MethodPost, "/api/expenses", "alice", map[string]any{"name": "x", "price": 1})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// Reads are never limited.
	rr = env.do(t, http.MethodGet, "/api/expenses", "alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1), env.srv.SecurityStats().RateLimitHits)
}

type stubEngine struct {
	res finance.Reconciliation
	err error
}

func (s stubEngine) ReconcileAndPersist(context.Context, string, time.Time) (finance.Reconciliation, error) {
	return s.res, s.err
}

func (s stubEngine) ComputeOverview(context.Context, string, time.Time) (core.Overview, error) {
	return s.res.Snapshot.Overview, s.err
}

func (s stubEngine) ComputeDailyLimit(context.Context, string, time.Time) (float64, error) {
	return s.res.Snapshot.DailyLimit, s.err
}

func (s stubEngine) GenerateForecasts(context.Context, string) (core.Forecast, error) {
	return core.Forecast{}, s.err
}

func (stubEngine) Clock() core.Clock { return core.NewClock(core.DefaultUTCOffset) }

func TestDashboardServesUnpersistedFigures(t *testing.T) {
	snap := core.FinancialOverview{Username: "alice", Overview: core.Overview{DailyLimit: 90, MonthlyEarnings: 3000}}
	oc := cache.NewOverviewCache(10, time.Hour)
	srv := NewServer(Config{Now: func() time.Time { return testNow }}, Deps{
		Engine: stubEngine{
			res: finance.Reconciliation{Snapshot: snap},
			err: fmt.Errorf("%w: disk full", finance.ErrPersist),
		},
		Cache: oc,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(UsernameHeader, "alice")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "unpersisted", rr.Header().Get(OutcomeHeader))
	assert.Equal(t, snap.Overview, decode[core.Overview](t, rr))
	assert.Zero(t, oc.LRU().Size(), "unpersisted figures are not cached")
}

func TestDashboardComputeFailure(t *testing.T) {
	srv := NewServer(Config{}, Deps{Engine: stubEngine{err: errors.New("database is locked")}})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(UsernameHeader, "alice")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "locked")
}
