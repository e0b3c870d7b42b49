package backtest

import (
	"math"
	"testing"

	"LPQuant/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hour = int64(3_600_000)

func seriesOf(prices ...float64) models.PriceSeries {
	s := make(models.PriceSeries, len(prices))
	for i, p := range prices {
		s[i] = models.PricePoint{OpenTime: int64(i) * hour, Open: p, High: p, Low: p, Close: p}
	}
	return s
}

func TestRunEmptySeries(t *testing.T) {
	_, err := Run(nil, 1, 2, 1.5, 1000)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestRunFlatInsideRange(t *testing.T) {
	s := seriesOf(3.5, 3.5, 3.5, 3.5, 3.5, 3.5)
	res, err := Run(s, 3.0, 4.0, 3.5, 10_000)
	require.NoError(t, err)

	m := res.Metrics
	assert.Equal(t, 100.0, m.InRangePct)
	assert.Equal(t, 0, m.BoundaryTouches)
	assert.Equal(t, 0.0, m.MaxDrawdownPct)
	assert.Equal(t, 0, m.TouchCount)
	assert.Equal(t, 0.0, m.LpVsHodlPct)
	assert.Equal(t, 0.0, m.MaxILPct)
	assert.Equal(t, 5.0, m.MeanTimeToExitHours)
	assert.InDelta(t, math.Sqrt(4.0/3.0), m.CapitalEfficiency, 0.005)

	// entering at p0 inside the range deploys exactly the capital
	assert.InDelta(t, 10_000, res.Series.LpValues[0], 1e-3)
	assert.Empty(t, res.Series.Markers)
}

func TestRunSeriesArePaired(t *testing.T) {
	s := seriesOf(1.0, 1.05, 0.97, 1.2, 1.01)
	res, err := Run(s, 0.9, 1.1, 1.0, 1000)
	require.NoError(t, err)

	n := len(s)
	assert.Len(t, res.Series.Timestamps, n)
	assert.Len(t, res.Series.LpValues, n)
	assert.Len(t, res.Series.HodlValues, n)
	assert.Len(t, res.Series.ILPct, n)
	assert.Len(t, res.Series.Prices, n)
	assert.Equal(t, s.Timestamps(), res.Series.Timestamps)
	assert.Equal(t, s.Closes(), res.Series.Prices)
}

func TestRunCountsCrossings(t *testing.T) {
	s := seriesOf(1.0, 1.2, 1.0, 0.8, 1.0)
	res, err := Run(s, 0.9, 1.1, 1.0, 1000)
	require.NoError(t, err)

	m := res.Metrics
	assert.Equal(t, 60.0, m.InRangePct)
	assert.Equal(t, 4, m.BoundaryTouches)
	assert.Equal(t, 2, m.TouchCount)
	assert.Equal(t, 1.0, m.MeanTimeToExitHours)

	require.Len(t, res.Series.Markers, 4)
	assert.Equal(t, models.MarkerAboveBar, res.Series.Markers[0].Position)
	assert.Equal(t, models.ShapeArrowDown, res.Series.Markers[0].Shape)
	assert.Equal(t, models.MarkerInBar, res.Series.Markers[1].Position)
	assert.Equal(t, models.MarkerBelowBar, res.Series.Markers[2].Position)
	assert.Equal(t, 3*hour, res.Series.Markers[2].Time)
}

func TestRunImpermanentLoss(t *testing.T) {
	// price runs far above the range: LP is all quote and lags HODL
	s := seriesOf(1.0, 1.5, 2.0)
	res, err := Run(s, 0.9, 1.1, 1.0, 1000)
	require.NoError(t, err)

	m := res.Metrics
	assert.Greater(t, m.MaxILPct, 0.0)
	assert.Less(t, m.LpVsHodlPct, 0.0)
	assert.InDelta(t, -m.LpVsHodlPct, m.MaxILPct, 0.01, "worst IL is at the last point")
	assert.Equal(t, 1.0, m.MeanTimeToExitHours)
	assert.Equal(t, 1, m.TouchCount)

	// above the range the LP value stops growing
	assert.InDelta(t, res.Series.LpValues[1], res.Series.LpValues[2], 1e-3)
}

func TestRunDrawdown(t *testing.T) {
	s := seriesOf(1.0, 0.95, 0.9, 0.85)
	res, err := Run(s, 0.8, 1.2, 1.0, 1000)
	require.NoError(t, err)

	lp := res.Series.LpValues
	want := (1000 - lp[len(lp)-1]) / 1000 * 100
	assert.InDelta(t, want, res.Metrics.MaxDrawdownPct, 0.01)
	assert.Greater(t, res.Metrics.MaxDrawdownPct, 0.0)
}

func TestRunDegenerateRangeDoesNotFail(t *testing.T) {
	s := seriesOf(1.0, 1.1, 0.9)
	res, err := Run(s, 1.0, 1.0, 1.0, 1000)
	require.NoError(t, err)
	assert.Len(t, res.Series.LpValues, 3)

	res, err = Run(s, 2.0, 3.0, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Metrics.InRangePct)
	assert.Equal(t, 0.0, res.Metrics.MeanTimeToExitHours)
}

func TestEvaluateUsesAlignedBounds(t *testing.T) {
	c := models.AlignedCandidate{
		RangeCandidate: models.RangeCandidate{Pa: 0.5, Pb: 5, Label: "wide"},
		AlignedPa:      0.95,
		AlignedPb:      1.05,
	}
	ev, err := Evaluate(c, seriesOf(1.0, 1.2), 1.0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ev.Metrics.InRangePct)
	assert.Equal(t, "wide", ev.Label)
}
