package candidates

import (
	"fmt"
	"math"

	"LPQuant/internal/domain/models"
)

// SigmaTFloor is the minimum horizon-scaled sigma.
const SigmaTFloor = 0.001

var (
	balancedKs = []float64{1.5, 1.75, 2.0}
	narrowKs   = []float64{0.5, 0.75, 1.0}
)

// SigmaT scales an annual sigma to the horizon: σ·sqrt(days/365).
func SigmaT(sigmaAnnual, horizonDays float64) float64 {
	if horizonDays < 0 {
		horizonDays = 0
	}
	return math.Max(sigmaAnnual*math.Sqrt(horizonDays/365), SigmaTFloor)
}

// StayProbability approximates the chance the price stays within ±kσ over
// the whole path: erf(k/√2)·(1 − e^{−k²}). Strictly increasing on k ≥ 0.
func StayProbability(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return math.Erf(k/math.Sqrt2) * (1 - math.Exp(-k*k))
}

// Sigma builds log-symmetric ranges at balanced and narrow sigma multiples.
func Sigma(price float64, vol models.VolatilityEstimate, horizonDays float64) []models.RangeCandidate {
	if price <= 0 {
		return nil
	}
	sT := SigmaT(vol.SigmaAnnual, horizonDays)

	out := make([]models.RangeCandidate, 0, len(balancedKs)+len(narrowKs))
	add := func(rt models.RangeType, ks []float64) {
		for _, k := range ks {
			out = append(out, models.RangeCandidate{
				Pa:            price * math.Exp(-k*sT),
				Pb:            price * math.Exp(k*sT),
				Label:         fmt.Sprintf("%s_%.2fs", rt, k),
				RangeType:     rt,
				KSigma:        k,
				EstimatedProb: StayProbability(k),
			})
		}
	}
	add(models.RangeBalanced, balancedKs)
	add(models.RangeNarrow, narrowKs)
	return out
}
