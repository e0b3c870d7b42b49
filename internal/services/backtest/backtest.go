// Package backtest replays a price series against a fixed concentrated
// liquidity range and compares it with holding the initial 50/50 split.
// Fee income is not modelled.
package backtest

import (
	"errors"
	"math"

	"LPQuant/internal/domain/models"
	"LPQuant/pkg/util"
)

var ErrEmptySeries = errors.New("price series is empty")

type Result struct {
	Metrics models.BacktestMetrics
	Series  models.ChartSeries
}

// Run simulates a position over [pa, pb] entered at p0 with the given capital.
func Run(series models.PriceSeries, pa, pb, p0, capital float64) (Result, error) {
	n := len(series)
	if n == 0 {
		return Result{}, ErrEmptySeries
	}

	pa = math.Max(pa, epsilon)
	pb = math.Max(pb, pa+epsilon)
	entry := math.Max(math.Min(p0, pb), pa)

	pos := newPosition(capital, entry, pa, pb)
	hodlBase := p0
	if hodlBase <= 0 {
		hodlBase = entry
	}
	hodlX := capital / 2 / hodlBase
	hodlY := capital / 2

	lp := make([]float64, n)
	hodl := make([]float64, n)
	il := make([]float64, n)
	prices := make([]float64, n)
	ts := make([]int64, n)

	tracker := newRangeTracker(pa, pb)
	peak := capital
	maxDD := 0.0
	worstIL := 0.0

	for i, pt := range series {
		price := pt.Close
		lv := pos.value(price)
		hv := hodlX*price + hodlY

		ilPct := 0.0
		if hv > 0 {
			ilPct = (lv - hv) / hv * 100
		}
		if ilPct < worstIL {
			worstIL = ilPct
		}

		if lv > peak {
			peak = lv
		}
		if peak > 0 {
			if dd := (peak - lv) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}

		tracker.step(pt.OpenTime, price)

		lp[i], hodl[i], il[i], prices[i], ts[i] = lv, hv, ilPct, price, pt.OpenTime
	}

	lpVsHodl := 0.0
	if last := hodl[n-1]; last > 0 {
		lpVsHodl = (lp[n-1] - last) / last * 100
	}

	markers := tracker.markers
	if markers == nil {
		markers = []models.ChartMarker{}
	}

	return Result{
		Metrics: models.BacktestMetrics{
			InRangePct:          util.Round(float64(tracker.inCount)/float64(n)*100, 2),
			LpVsHodlPct:         util.Round(lpVsHodl, 2),
			MaxILPct:            util.Round(math.Abs(worstIL), 2),
			MaxDrawdownPct:      util.Round(maxDD, 2),
			CapitalEfficiency:   util.Round(math.Sqrt(pb/pa), 2),
			BoundaryTouches:     tracker.touches,
			TouchCount:          tracker.exits,
			MeanTimeToExitHours: util.Round(tracker.meanTimeToExit(), 2),
		},
		Series: models.ChartSeries{
			Timestamps: ts,
			LpValues:   util.RoundAll(lp, 4),
			HodlValues: util.RoundAll(hodl, 4),
			ILPct:      util.RoundAll(il, 4),
			Prices:     prices,
			Markers:    markers,
		},
	}, nil
}

// Evaluate back-tests an aligned candidate on its snapped bounds.
func Evaluate(c models.AlignedCandidate, series models.PriceSeries, p0, capital float64) (models.EvaluatedCandidate, error) {
	res, err := Run(series, c.AlignedPa, c.AlignedPb, p0, capital)
	if err != nil {
		return models.EvaluatedCandidate{}, err
	}
	return models.EvaluatedCandidate{
		AlignedCandidate: c,
		Metrics:          res.Metrics,
		Series:           res.Series,
	}, nil
}
