package http

import (
	"net/http"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

type earningRequest struct {
	HourlyRate float64    `json:"hourly_rate"`
	Hours      float64    `json:"hours"`
	CashTips   float64    `json:"cash_tips"`
	Salary     float64    `json:"salary"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

func (s *Server) handleCreateEarning(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	var req earningRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	e := core.Earning{
		Username:   username,
		HourlyRate: req.HourlyRate,
		Hours:      req.Hours,
		CashTips:   req.CashTips,
		Salary:     req.Salary,
		Timestamp:  s.now(),
	}
	if req.Timestamp != nil {
		e.Timestamp = *req.Timestamp
	}

	if err := s.ledger.AddEarning(ctx, &e); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to add earning",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Earning recorded",
		applog.FieldUsername, username,
		"earning_id", e.ID,
		"salaried", e.Salary > 0)
	NewJSONResponse().Status(http.StatusCreated).Body(e).Write(w)
}

func (s *Server) handleListEarnings(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	query := r.URL.Query()

	window, err := parseWindow(query, s.engine.Clock())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	salaryOnly, err := parseBool(query, "salary_only")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	filter := core.EarningFilter{Window: window, SalaryOnly: salaryOnly != nil && *salaryOnly}
	rows, err := s.ledger.ListEarnings(ctx, username, filter)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to list earnings",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	if rows == nil {
		rows = []core.Earning{}
	}
	NewJSONResponse().Body(rows).Write(w)
}

func (s *Server) handleDeleteEarning(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.DeleteEarning(ctx, username, id); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to delete earning",
			applog.FieldUsername, username,
			"earning_id", id,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
