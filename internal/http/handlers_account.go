package http

import (
	"context"
	"net/http"

	applog "budget/internal/log"
)

type savingsGoalRequest struct {
	Goal *float64 `json:"goal"`
}

type spendingLimitRequest struct {
	Adjustment *float64 `json:"adjustment"`
}

// handleSavingsGoal stores the goal and answers with figures recomputed
// against it.
func (s *Server) handleSavingsGoal(w http.ResponseWriter, r *http.Request, username string) {
	var req savingsGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.Goal == nil {
		BadRequestError("goal is required").Write(w)
		return
	}
	s.updateAccount(w, r, username, "savings goal", func(ctx context.Context) error {
		return s.ledger.SetSavingsGoal(ctx, username, *req.Goal)
	})
}

// handleSpendingLimit stores the manual daily limit adjustment. Negative
// values shrink the limit.
func (s *Server) handleSpendingLimit(w http.ResponseWriter, r *http.Request, username string) {
	var req spendingLimitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.Adjustment == nil {
		BadRequestError("adjustment is required").Write(w)
		return
	}
	s.updateAccount(w, r, username, "spending limit", func(ctx context.Context) error {
		return s.ledger.SetSpendingLimit(ctx, username, *req.Adjustment)
	})
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request, username, what string, apply func(context.Context) error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if err := apply(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to update "+what,
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}

	ov, err := s.engine.ComputeOverview(ctx, username, s.now())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to recompute overview",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(ov).Write(w)
}
