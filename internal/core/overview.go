package core

import "time"

// Overview is the dashboard payload. Field names and order are part of the
// public JSON contract; every value is rounded to 2 decimals.
type Overview struct {
	MonthlyEarnings             float64 `json:"monthly_earnings"`
	MonthlyExpenses             float64 `json:"monthly_expenses"`
	MonthlyExpensesRepeating    float64 `json:"monthly_expenses_repeating"`
	MonthlyExpensesNonRepeating float64 `json:"monthly_expenses_non_repeating"`
	DailyLimit                  float64 `json:"daily_limit"`
	DailyEarnings               float64 `json:"daily_earnings"`
	TotalMoneySpentToday        float64 `json:"total_money_spent_today"`
	SavingsRate                 float64 `json:"savings_rate"`
	SavingsForecast             float64 `json:"savings_forecast"`
	UnusedDailyLimit            float64 `json:"unused_daily_limit"`
}

// FinancialOverview is the persisted snapshot: one row per user per local day.
type FinancialOverview struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	LocalDay  string    `json:"local_day"`
	Timestamp time.Time `json:"timestamp"`
	Overview
	WeeklyEarnings float64   `json:"weekly_earnings"`
	StartOfMonth   time.Time `json:"start_of_month"`
	EndOfMonth     time.Time `json:"end_of_month"`
	StartOfWeek    time.Time `json:"start_of_week"`
	EndOfWeek      time.Time `json:"end_of_week"`
}

// SameFigures reports whether two snapshots carry identical computed values.
// Timestamp and the rolling month bounds are bookkeeping and do not count.
func (f FinancialOverview) SameFigures(other FinancialOverview) bool {
	return f.Overview == other.Overview &&
		f.WeeklyEarnings == other.WeeklyEarnings &&
		f.StartOfWeek.Equal(other.StartOfWeek) &&
		f.EndOfWeek.Equal(other.EndOfWeek)
}

// ForecastPeriods is the number of projected periods in every forecast series.
const ForecastPeriods = 6

// Forecast holds flat moving-average projections.
type Forecast struct {
	Expense  []float64 `json:"expense"`
	Earnings []float64 `json:"earnings"`
	Savings  []float64 `json:"savings"`
}
