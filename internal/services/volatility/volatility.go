// Package volatility blends realized, ATR and EWMA volatility with a
// short-vs-long regime adjustment into one annualized sigma.
package volatility

import (
	"math"

	"LPQuant/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultAnnualizeFactor = 365 * 24
	DefaultATRPeriod       = 14
	DefaultEWMASpan        = 24
	DefaultShortWindow     = 24
	DefaultLongWindow      = 168

	// SigmaFloor keeps flat or illiquid histories from producing zero-width ranges.
	SigmaFloor = 0.05

	weightRealized = 0.40
	weightEWMA     = 0.35
	weightATR      = 0.25
)

type Estimator struct {
	AnnualizeFactor float64
	ATRPeriod       int
	EWMASpan        int
	ShortWindow     int
	LongWindow      int
}

// New returns an estimator for bars sampled annualizeFactor times per year.
func New(annualizeFactor float64) *Estimator {
	if annualizeFactor <= 0 {
		annualizeFactor = DefaultAnnualizeFactor
	}
	return &Estimator{
		AnnualizeFactor: annualizeFactor,
		ATRPeriod:       DefaultATRPeriod,
		EWMASpan:        DefaultEWMASpan,
		ShortWindow:     DefaultShortWindow,
		LongWindow:      DefaultLongWindow,
	}
}

// AnnualizeFactorFor returns the number of bars per year for a bar interval.
func AnnualizeFactorFor(interval string) float64 {
	switch interval {
	case "1m":
		return 365 * 24 * 60
	case "5m":
		return 365 * 24 * 12
	case "15m":
		return 365 * 24 * 4
	case "4h":
		return 365 * 6
	case "1d":
		return 365
	default:
		return DefaultAnnualizeFactor
	}
}

// LogReturns computes r_t = ln(C_t / C_{t-1}); non-positive prices yield 0.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// Realized is the sample standard deviation of log returns, annualized.
func (e *Estimator) Realized(closes []float64) float64 {
	return realized(closes, e.AnnualizeFactor)
}

func realized(closes []float64, annualize float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	r := LogReturns(closes)
	if len(r) < 2 {
		// ddof=1 is undefined for a single return
		return 0
	}
	sd := stat.StdDev(r, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(annualize)
}

// ATR is the EMA of true range normalized by the mean close, annualized.
func (e *Estimator) ATR(highs, lows, closes []float64) float64 {
	n := len(closes)
	if len(highs) < n {
		n = len(highs)
	}
	if len(lows) < n {
		n = len(lows)
	}
	if n < 2 {
		return 0
	}

	alpha := 2.0 / float64(e.ATRPeriod+1)
	atr := 0.0
	for i := 1; i < n; i++ {
		prev := closes[i-1]
		tr := math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
		if i == 1 {
			atr = tr
			continue
		}
		atr = alpha*tr + (1-alpha)*atr
	}

	meanClose := stat.Mean(closes[:n], nil)
	if meanClose <= 0 {
		return 0
	}
	return atr / meanClose * math.Sqrt(e.AnnualizeFactor)
}

// EWMA is the exponentially weighted variance of squared log returns, annualized.
func (e *Estimator) EWMA(closes []float64) float64 {
	r := LogReturns(closes)
	if len(r) == 0 {
		return 0
	}
	alpha := 2.0 / float64(e.EWMASpan+1)
	v := r[0] * r[0]
	for _, x := range r[1:] {
		v = alpha*x*x + (1-alpha)*v
	}
	return math.Sqrt(v) * math.Sqrt(e.AnnualizeFactor)
}

// DetectRegime compares short and long window realized volatility.
func (e *Estimator) DetectRegime(closes []float64) (models.Regime, float64) {
	if len(closes) < e.LongWindow+1 {
		return models.RegimeNormal, 1.0
	}
	short := realized(tail(closes, e.ShortWindow), 1)
	long := realized(tail(closes, e.LongWindow), 1)
	if long <= 0 {
		return models.RegimeNormal, 1.0
	}

	ratio := short / long
	switch {
	case ratio < 0.8:
		return models.RegimeLow, 0.85
	case ratio > 1.3:
		return models.RegimeHigh, 1.15
	default:
		return models.RegimeNormal, 1.0
	}
}

// tail returns the last n closes, clamped to the series length.
func tail(closes []float64, n int) []float64 {
	if n <= 0 || n > len(closes) {
		return closes
	}
	return closes[len(closes)-n:]
}

// Estimate blends the three estimators and applies the regime multiplier.
func (e *Estimator) Estimate(series models.PriceSeries) models.VolatilityEstimate {
	closes := series.Closes()
	rv := e.Realized(closes)
	atr := e.ATR(series.Highs(), series.Lows(), closes)
	ewma := e.EWMA(closes)
	regime, mult := e.DetectRegime(closes)

	blended := (weightRealized*rv + weightEWMA*ewma + weightATR*atr) * mult
	blended = math.Max(blended, SigmaFloor)

	return models.VolatilityEstimate{
		SigmaAnnual:      blended,
		SigmaRealized:    rv,
		SigmaATR:         atr,
		SigmaEWMA:        ewma,
		Regime:           regime,
		RegimeMultiplier: mult,
	}
}
