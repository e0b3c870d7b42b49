package util

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero at the given number of decimal places.
// NaN and infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// RoundAll rounds every element of xs into a new slice.
func RoundAll(xs []float64, places int32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = Round(x, places)
	}
	return out
}
