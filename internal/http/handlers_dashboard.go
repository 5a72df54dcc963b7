package http

import (
	"errors"
	"net/http"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/finance"
	applog "budget/internal/log"
)

// OutcomeHeader reports what the dashboard request did to the stored
// snapshot: created, updated, unchanged, skipped, cached or unpersisted.
const OutcomeHeader = "X-Overview-Outcome"

// handleDashboard reconciles today's snapshot and serves its figures. A
// persistence failure still yields the freshly computed payload.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	now := s.now()
	day := s.engine.Clock().LocalDay(now)

	if s.cache != nil {
		if entry, ok := s.cache.Get(username, day); ok {
			NewJSONResponse().Header(OutcomeHeader, "cached").Body(entry.Overview).Write(w)
			return
		}
	}

	res, err := s.engine.ReconcileAndPersist(ctx, username, now)
	switch {
	case err == nil:
		if s.cache != nil && res.Outcome != finance.OutcomeSkipped {
			s.cache.Set(username, day, cache.DashboardEntry{
				Overview:   res.Snapshot.Overview,
				DailyLimit: res.Snapshot.DailyLimit,
				ComputedAt: now,
			})
		}
		NewJSONResponse().Header(OutcomeHeader, string(res.Outcome)).Body(res.Snapshot.Overview).Write(w)
	case errors.Is(err, finance.ErrPersist):
		logger.WarnContext(ctx, "Serving unpersisted overview",
			applog.FieldUsername, username,
			applog.FieldLocalDay, day,
			applog.FieldError, err)
		NewJSONResponse().Header(OutcomeHeader, "unpersisted").Body(res.Snapshot.Overview).Write(w)
	default:
		logger.ErrorContext(ctx, "Failed to compute overview",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
	}
}

type dailyLimitResponse struct {
	DailyLimit float64 `json:"daily_limit"`
}

func (s *Server) handleDailyLimit(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	now := s.now()

	if s.cache != nil {
		if entry, ok := s.cache.Get(username, s.engine.Clock().LocalDay(now)); ok {
			NewJSONResponse().Body(dailyLimitResponse{DailyLimit: entry.DailyLimit}).Write(w)
			return
		}
	}

	limit, err := s.engine.ComputeDailyLimit(ctx, username, now)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to compute daily limit",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(dailyLimitResponse{DailyLimit: limit}).Write(w)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	fc, err := s.engine.GenerateForecasts(ctx, username)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to generate forecast",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(fc).Write(w)
}

func (s *Server) handleOverviews(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	days, err := parseDays(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	snaps, err := s.snapshots.ListSnapshots(ctx, username, days)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to list snapshots",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	if snaps == nil {
		snaps = []core.FinancialOverview{}
	}
	NewJSONResponse().Body(snaps).Write(w)
}
