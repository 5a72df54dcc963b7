package http

import (
	"net/http"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

type expenseRequest struct {
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Repeating bool       `json:"repeating"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (req expenseRequest) expense(username string, defaultTS time.Time) core.Expense {
	e := core.Expense{
		Username:  username,
		Name:      sanitizeInput(req.Name),
		Price:     req.Price,
		Repeating: req.Repeating,
		Timestamp: defaultTS,
	}
	if req.Timestamp != nil {
		e.Timestamp = *req.Timestamp
	}
	return e
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	e := req.expense(username, s.now())
	if err := s.ledger.AddExpense(ctx, &e); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to add expense",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Expense recorded",
		applog.FieldUsername, username,
		"expense_id", e.ID,
		"repeating", e.Repeating)
	NewJSONResponse().Status(http.StatusCreated).Body(e).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	query := r.URL.Query()

	window, err := parseWindow(query, s.engine.Clock())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	repeating, err := parseBool(query, "repeating")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rows, err := s.ledger.ListExpenses(ctx, username, core.ExpenseFilter{Window: window, Repeating: repeating})
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to list expenses",
			applog.FieldUsername, username,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	if rows == nil {
		rows = []core.Expense{}
	}
	NewJSONResponse().Body(rows).Write(w)
}

// handleUpdateExpense overwrites every field. A missing timestamp is
// rejected rather than defaulted.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	e := req.expense(username, time.Time{})
	e.ID = id
	if err := s.ledger.UpdateExpense(ctx, &e); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to update expense",
			applog.FieldUsername, username,
			"expense_id", id,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.DeleteExpense(ctx, username, id); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to delete expense",
			applog.FieldUsername, username,
			"expense_id", id,
			applog.FieldError, err)
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
