package finance

import (
	"context"
	"testing"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateForecasts(t *testing.T) {
	l := newMemLedger()
	l.addAccount(core.Account{Username: "carol"})
	// Inserted newest first; ordering must come from timestamps.
	for i := 7; i >= 1; i-- {
		l.addExpense("carol", "item", float64(10*i), i%2 == 0, testNow.AddDate(0, 0, -(8-i)))
	}
	l.addEarning(core.Earning{Username: "carol", HourlyRate: 15, Hours: 40, Timestamp: testNow.AddDate(0, 0, -3)})
	l.addEarning(core.Earning{Username: "carol", Salary: 12000, Timestamp: testNow.AddDate(0, 0, -5)})
	e := newTestEngine(l, nil)

	f, err := e.GenerateForecasts(context.Background(), "carol")
	require.NoError(t, err)

	assert.Equal(t, []float64{45, 45, 45, 45, 45, 45}, f.Expense)
	assert.Equal(t, []float64{266.67, 266.67, 266.67, 266.67, 266.67, 266.67}, f.Earnings)
	assert.Equal(t, []float64{221.67, 221.67, 221.67, 221.67, 221.67, 221.67}, f.Savings)
}

func TestGenerateForecastsFewerThanSixExpenses(t *testing.T) {
	l := newMemLedger()
	l.addExpense("dave", "a", 10, false, testNow.AddDate(0, 0, -2))
	l.addExpense("dave", "b", 20, false, testNow.AddDate(0, 0, -1))
	e := newTestEngine(l, nil)

	f, err := e.GenerateForecasts(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5, 5, 5, 5}, f.Expense)
	assert.Equal(t, []float64{-5, -5, -5, -5, -5, -5}, f.Savings)
}

func TestGenerateForecastsSingleExpenseSpreadsOverWindow(t *testing.T) {
	l := newMemLedger()
	l.addExpense("erin", "bike repair", 60, false, testNow.AddDate(0, 0, -1))
	e := newTestEngine(l, nil)

	f, err := e.GenerateForecasts(context.Background(), "erin")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 10}, f.Expense)
}

func TestGenerateForecastsEmptyHistory(t *testing.T) {
	e := newTestEngine(newMemLedger(), nil)

	f, err := e.GenerateForecasts(context.Background(), "nobody")
	require.NoError(t, err)
	zeros := make([]float64, core.ForecastPeriods)
	assert.Equal(t, zeros, f.Expense)
	assert.Equal(t, zeros, f.Earnings)
	assert.Equal(t, zeros, f.Savings)
}
