package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

type (
	// Account is owned by the authentication subsystem. The engine only reads
	// MonthlySavingsGoal and SpendingLimit.
	Account struct {
		ID                 int64
		Username           string
		PasswordHash       string
		Email              string
		MonthlySavingsGoal float64
		SpendingLimit      float64 // manual adjustment, may be negative
		CreatedAt          time.Time
	}

	Expense struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		Name      string    `json:"name"`
		Price     float64   `json:"price"`
		Repeating bool      `json:"repeating"`
		Timestamp time.Time `json:"timestamp"`
	}

	// Earning is either an hourly-wage day (rate, hours, tips) or a salaried
	// pay event (annual salary). Nothing in the schema enforces the split.
	Earning struct {
		ID         int64     `json:"id"`
		Username   string    `json:"username"`
		HourlyRate float64   `json:"hourly_rate"`
		Hours      float64   `json:"hours"`
		CashTips   float64   `json:"cash_tips"`
		Salary     float64   `json:"salary"`
		Timestamp  time.Time `json:"timestamp"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrEmptyUsername    = errors.New("empty username")
	ErrNegativeGoal     = errors.New("savings goal cannot be negative")
	ErrZeroTimestamp    = errors.New("timestamp cannot be zero")
	ErrAccountNotFound  = errors.New("account not found")
	ErrNotFound         = errors.New("record not found")
	ErrCorruptRecord    = errors.New("corrupt ledger record")
	ErrSnapshotConflict = errors.New("snapshot already exists for local day")
)

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return ErrEmptyUsername
	}
	if !Finite(a.MonthlySavingsGoal) || a.MonthlySavingsGoal < 0 {
		return ErrNegativeGoal
	}
	if !Finite(a.SpendingLimit) {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Username) == "" {
		return ErrEmptyUsername
	}
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return ErrNameTooLong
	}
	if !Finite(e.Price) || e.Price <= 0 {
		return ErrInvalidAmount
	}
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

func (e Earning) Validate() error {
	if strings.TrimSpace(e.Username) == "" {
		return ErrEmptyUsername
	}
	for _, v := range []float64{e.HourlyRate, e.Hours, e.CashTips, e.Salary} {
		if !Finite(v) || v < 0 {
			return ErrInvalidAmount
		}
	}
	if e.HourlyRate*e.Hours+e.CashTips+e.Salary == 0 {
		return ErrInvalidAmount
	}
	if e.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

// Wages returns the per-event income of an hourly day: rate*hours plus tips.
// Rows carrying non-finite values yield ErrCorruptRecord.
func (e Earning) Wages() (float64, error) {
	v := e.HourlyRate*e.Hours + e.CashTips
	if !Finite(v) {
		return 0, ErrCorruptRecord
	}
	return v, nil
}
