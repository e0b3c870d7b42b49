package scoring

import "math"

// normalize min-max scales values to [0, 100] across the set. A zero span
// maps every finite value to the midpoint 50. Non-finite values score 0.
func normalize(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return out
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if hi == lo {
			out[i] = 50
			continue
		}
		s := (v - lo) / (hi - lo) * 100
		if invert {
			s = 100 - s
		}
		out[i] = s
	}
	return out
}
