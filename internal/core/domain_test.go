package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	good := Expense{Username: "alice", Name: "Rent", Price: 900, Repeating: true, Timestamp: ts}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Username: "", Name: "a", Price: 1, Timestamp: ts}, ErrEmptyUsername},
		{Expense{Username: "alice", Name: " ", Price: 1, Timestamp: ts}, ErrEmptyName},
		{Expense{Username: "alice", Name: "a", Price: 0, Timestamp: ts}, ErrInvalidAmount},
		{Expense{Username: "alice", Name: "a", Price: -3, Timestamp: ts}, ErrInvalidAmount},
		{Expense{Username: "alice", Name: "a", Price: math.NaN(), Timestamp: ts}, ErrInvalidAmount},
		{Expense{Username: "alice", Name: "a", Price: 1}, ErrZeroTimestamp},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestEarningValidate(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		e  Earning
		ok bool
	}{
		{Earning{Username: "a", HourlyRate: 20, Hours: 8, Timestamp: ts}, true},
		{Earning{Username: "a", Salary: 60000, Timestamp: ts}, true},
		{Earning{Username: "a", CashTips: 15, Timestamp: ts}, true},
		{Earning{Username: "a", Timestamp: ts}, false},
		{Earning{Username: "a", HourlyRate: -1, Hours: 8, Timestamp: ts}, false},
		{Earning{Username: "", Salary: 1, Timestamp: ts}, false},
		{Earning{Username: "a", Salary: 1}, false},
	}
	for i, tc := range cases {
		err := tc.e.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Username: "a", SpendingLimit: -20}).Validate(); err != nil {
		t.Fatalf("negative spending limit adjustment is allowed, got %v", err)
	}
	if err := (Account{Username: "a", MonthlySavingsGoal: -1}).Validate(); !errors.Is(err, ErrNegativeGoal) {
		t.Fatalf("expected ErrNegativeGoal, got %v", err)
	}
}

func TestEarningWagesCorrupt(t *testing.T) {
	if _, err := (Earning{HourlyRate: math.Inf(1), Hours: 1}).Wages(); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
	w, err := (Earning{HourlyRate: 15, Hours: 4, CashTips: 10}).Wages()
	if err != nil || w != 70 {
		t.Fatalf("got %v, %v", w, err)
	}
}

func TestFinancialOverviewSameFigures(t *testing.T) {
	at := time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC)
	base := FinancialOverview{
		Username:       "alice",
		LocalDay:       "2024-03-13",
		Timestamp:      at,
		Overview:       Overview{MonthlyEarnings: 3000, DailyLimit: 80, UnusedDailyLimit: 40},
		WeeklyEarnings: 692.31,
		StartOfMonth:   at.AddDate(0, 0, -30),
		EndOfMonth:     at,
		StartOfWeek:    time.Date(2024, 3, 11, 5, 0, 0, 0, time.UTC),
		EndOfWeek:      time.Date(2024, 3, 18, 5, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		mutate func(*FinancialOverview)
		want   bool
	}{
		{"identical", func(*FinancialOverview) {}, true},
		{"later timestamp", func(f *FinancialOverview) { f.Timestamp = at.Add(time.Hour) }, true},
		{"rolling month moved with now", func(f *FinancialOverview) {
			f.StartOfMonth = f.StartOfMonth.Add(time.Hour)
			f.EndOfMonth = f.EndOfMonth.Add(time.Hour)
		}, true},
		{"daily limit changed", func(f *FinancialOverview) { f.DailyLimit = 81 }, false},
		{"weekly earnings changed", func(f *FinancialOverview) { f.WeeklyEarnings = 700 }, false},
		{"week bounds changed", func(f *FinancialOverview) { f.StartOfWeek = f.StartOfWeek.AddDate(0, 0, 7) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if got := base.SameFigures(other); got != tt.want {
				t.Errorf("SameFigures() = %v, want %v", got, tt.want)
			}
		})
	}
}
