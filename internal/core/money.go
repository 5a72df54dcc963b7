package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to 2 decimal places, half away from zero, on the shortest
// decimal representation of v (so 2.675 rounds to 2.68). Non-finite input
// rounds to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	if f == 0 {
		return 0 // drop negative zero
	}
	return f
}

// RoundAll rounds every element of vs in place and returns it.
func RoundAll(vs []float64) []float64 {
	for i, v := range vs {
		vs[i] = Round2(v)
	}
	return vs
}
