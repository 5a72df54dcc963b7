package core

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in  float64
		out float64
	}{
		{10, 10},
		{1.005, 1.01},
		{2.675, 2.68},
		{1.004, 1},
		{-1.005, -1.01},
		{-0.001, 0},
		{33.333333, 33.33},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.out {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.out)
		}
	}
	if math.Signbit(Round2(-0.001)) {
		t.Fatalf("expected positive zero")
	}
}

func TestRoundAll(t *testing.T) {
	got := RoundAll([]float64{1.111, 2.225, 3})
	want := []float64{1.11, 2.23, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
