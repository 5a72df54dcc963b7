package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/finance"
	applog "budget/internal/log"
)

// Engine is the budgeting engine surface the API serves.
type Engine interface {
	ReconcileAndPersist(ctx context.Context, username string, now time.Time) (finance.Reconciliation, error)
	ComputeOverview(ctx context.Context, username string, now time.Time) (core.Overview, error)
	ComputeDailyLimit(ctx context.Context, username string, now time.Time) (float64, error)
	GenerateForecasts(ctx context.Context, username string) (core.Forecast, error)
	Clock() core.Clock
}

// Ledger validates and records ledger writes.
type Ledger interface {
	AddExpense(ctx context.Context, e *core.Expense) error
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, username string, id int64) error
	ListExpenses(ctx context.Context, username string, filter core.ExpenseFilter) ([]core.Expense, error)
	AddEarning(ctx context.Context, e *core.Earning) error
	DeleteEarning(ctx context.Context, username string, id int64) error
	ListEarnings(ctx context.Context, username string, filter core.EarningFilter) ([]core.Earning, error)
	SetSavingsGoal(ctx context.Context, username string, goal float64) error
	SetSpendingLimit(ctx context.Context, username string, adjustment float64) error
}

// SnapshotLister reads stored daily snapshots, newest first.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, username string, limit int) ([]core.FinancialOverview, error)
}

// Pinger reports store reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server's tunables.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	// WriteRateLimit is the number of ledger writes allowed per client per
	// minute. Zero disables limiting.
	WriteRateLimit int
	Now            func() time.Time
}

// Deps are the collaborators the handlers call. Cache may be nil.
type Deps struct {
	Engine    Engine
	Ledger    Ledger
	Snapshots SnapshotLister
	Store     Pinger
	Cache     *cache.OverviewCache
	Logger    *applog.Logger
}

// Server is the JSON API server.
type Server struct {
	http.Server

	engine    Engine
	ledger    Ledger
	snapshots SnapshotLister
	store     Pinger
	cache     *cache.OverviewCache
	logger    *applog.Logger
	now       func() time.Time

	rateLimiter  *rateLimiter
	metrics      securityMetrics
	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware chain.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		engine:    deps.Engine,
		ledger:    deps.Ledger,
		snapshots: deps.Snapshots,
		store:     deps.Store,
		cache:     deps.Cache,
		logger:    logger,
		now:       now,
	}
	if cfg.WriteRateLimit > 0 {
		s.rateLimiter = newRateLimiter(cfg.WriteRateLimit, time.Minute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("GET /api/dashboard", s.api(s.handleDashboard))
	mux.Handle("GET /api/daily-limit", s.api(s.handleDailyLimit))
	mux.Handle("GET /api/forecast", s.api(s.handleForecast))
	mux.Handle("GET /api/overviews", s.api(s.handleOverviews))

	mux.Handle("POST /api/expenses", s.api(s.handleCreateExpense))
	mux.Handle("GET /api/expenses", s.api(s.handleListExpenses))
	mux.Handle("PUT /api/expenses/{id}", s.api(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.api(s.handleDeleteExpense))

	mux.Handle("POST /api/earnings", s.api(s.handleCreateEarning))
	mux.Handle("GET /api/earnings", s.api(s.handleListEarnings))
	mux.Handle("DELETE /api/earnings/{id}", s.api(s.handleDeleteEarning))

	mux.Handle("PUT /api/account/savings-goal", s.api(s.handleSavingsGoal))
	mux.Handle("PUT /api/account/spending-limit", s.api(s.handleSpendingLimit))

	var handler http.Handler = mux
	handler = s.withSecurity(handler)
	if cfg.RequestTimeout > 0 {
		handler = withTimeout(cfg.RequestTimeout)(handler)
	}
	handler = applog.AccessLog(handler)
	handler = applog.RequestIDMiddleware(requestID)(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// apiHandler is a handler that already knows the caller's account.
type apiHandler func(w http.ResponseWriter, r *http.Request, username string)

// api requires an account header and rate-limits writes.
func (s *Server) api(h apiHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		if username == "" {
			atomic.AddInt64(&s.metrics.unauthenticated, 1)
			UnauthorizedError().Write(w)
			return
		}

		if r.Method != http.MethodGet && s.rateLimiter != nil {
			clientIP := extractClientIP(r)
			if !s.rateLimiter.allow(clientIP+"|"+username, &s.metrics) {
				applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldUsername, username,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").
					Header("Retry-After", "60").
					Write(w)
				return
			}
		}

		h(w, r, username)
	})
}

// withSecurity sets response headers and logs suspicious traffic.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		if detectSuspiciousRequest(r, &s.metrics) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, extractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// withTimeout bounds every request's context.
func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecurityStats returns the current security counters.
func (s *Server) SecurityStats() SecurityStats {
	return s.metrics.snapshot()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops background cleanup and the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		stats := s.metrics.snapshot()
		s.logger.Info("HTTP server shutting down",
			"rate_limit_hits", stats.RateLimitHits,
			"suspicious_requests", stats.SuspiciousRequests,
			"unauthenticated", stats.Unauthenticated)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
