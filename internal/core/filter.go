package core

import "time"

// ExpenseFilter narrows a ledger expense query. Nil fields match everything.
type ExpenseFilter struct {
	Window    *Window
	Repeating *bool
}

// EarningFilter narrows a ledger earning query. Until is inclusive.
type EarningFilter struct {
	Window     *Window
	Until      *time.Time
	SalaryOnly bool
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
