package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	svcmetrics "LPQuant/internal/service/metrics"
	"LPQuant/internal/services/candidates"
	"LPQuant/internal/services/strategy"
	"LPQuant/internal/services/tickmath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingKlines(n int) []models.Kline {
	hour := float64(time.Hour / time.Millisecond)
	out := make([]models.Kline, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		out[i] = models.Kline{float64(t0) + float64(i)*hour, c - 0.5, c + 0.3, c - 0.7, c, 1000}
	}
	return out
}

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func newRecommender(bars *BarsUseCase) *RecommendUseCase {
	reg := strategy.NewRegistry(strategy.NamePattern,
		strategy.NewPatternStrategy(),
		strategy.NewSigmaStrategy(nil),
	)
	return NewRecommendUseCase(reg, bars, svcmetrics.NewEngine(prometheus.NewRegistry()), RecommendConfig{}, nil)
}

func TestRecommendPatternRisingSeriesAggressive(t *testing.T) {
	uc := newRecommender(nil)
	resp, err := uc.RecommendPattern(context.Background(), models.RecommendRequest{
		Klines:       risingKlines(48),
		CurrentPrice: 147,
		TickSpacing:  60,
		FeeRate:      0.0025,
		Profile:      "aggressive",
		CapitalUSD:   10000,
	})
	require.NoError(t, err)

	require.Len(t, resp.Top3, 3)
	for i := 1; i < len(resp.Top3); i++ {
		assert.GreaterOrEqual(t, resp.Top3[i-1].Score, resp.Top3[i].Score)
	}

	narrowest := math.Inf(1)
	for _, c := range candidates.Filter(candidates.Pattern(risingCloses(48), strategy.DefaultPatternStrategies)) {
		a, err := tickmath.Align(c, 60, 147)
		require.NoError(t, err)
		narrowest = math.Min(narrowest, a.WidthPct)
	}
	best := resp.Top3[0]
	assert.Equal(t, narrowest, best.WidthPct)
	for _, c := range resp.Top3[1:] {
		assert.Less(t, best.WidthPct, c.WidthPct)
		assert.GreaterOrEqual(t, best.Metrics.LpVsHodlPct, c.Metrics.LpVsHodlPct)
	}

	for _, c := range resp.Top3 {
		assert.Less(t, c.Pa, c.Pb)
		assert.Zero(t, c.TickLower%60)
		assert.Zero(t, c.TickUpper%60)
		assert.NotEmpty(t, c.Insight)
		assert.NotNil(t, c.InsightData)
	}

	assert.Equal(t, candidates.ExtremeLabel(2), resp.Extreme2Pct.Strategy)
	assert.Equal(t, candidates.ExtremeLabel(5), resp.Extreme5Pct.Strategy)
	assert.Less(t, resp.Extreme2Pct.WidthPct, resp.Extreme5Pct.WidthPct)

	for _, key := range []string{"top1", "top2", "top3", "extreme_2pct", "extreme_5pct"} {
		s, ok := resp.Series[key]
		require.True(t, ok, key)
		assert.Equal(t, 48, s.Len(), key)
		assert.Len(t, s.LpValues, 48, key)
	}
	assert.Equal(t, 147.0, resp.CurrentPrice)
	assert.Equal(t, 0.0025, resp.PoolFeeRate)
}

func TestRecommendPatternPadsWithExtremes(t *testing.T) {
	uc := newRecommender(nil)
	resp, err := uc.RecommendPattern(context.Background(), models.RecommendRequest{
		Klines:       risingKlines(2),
		CurrentPrice: 101,
		TickSpacing:  10,
		Profile:      "balanced",
		Strategies:   []string{"no_such_generator"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Top3, 2)
	labels := []string{resp.Top3[0].Strategy, resp.Top3[1].Strategy}
	assert.ElementsMatch(t, []string{candidates.ExtremeLabel(2), candidates.ExtremeLabel(5)}, labels)
	assert.Contains(t, resp.Series, "top2")
	assert.NotContains(t, resp.Series, "top3")
}

func TestRecommendInvalidInput(t *testing.T) {
	uc := newRecommender(nil)
	ctx := context.Background()
	good := risingKlines(10)

	tests := []struct {
		name string
		req  models.RecommendRequest
	}{
		{"one kline", models.RecommendRequest{Klines: good[:1], CurrentPrice: 100, TickSpacing: 10}},
		{"short row", models.RecommendRequest{Klines: []models.Kline{{1, 2, 3, 4, 5}, {1, 2, 3}}, CurrentPrice: 100, TickSpacing: 10}},
		{"zero price", models.RecommendRequest{Klines: good, CurrentPrice: 0, TickSpacing: 10}},
		{"zero spacing", models.RecommendRequest{Klines: good, CurrentPrice: 100, TickSpacing: 0}},
		{"unknown profile", models.RecommendRequest{Klines: good, CurrentPrice: 105, TickSpacing: 10, Profile: "yolo"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.RecommendPattern(ctx, tc.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := uc.RecommendSigma(ctx, models.SigmaRecommendRequest{Klines: good, CurrentPrice: -1, TickSpacing: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecommendMaxKlines(t *testing.T) {
	reg := strategy.NewRegistry(strategy.NamePattern, strategy.NewPatternStrategy())
	uc := NewRecommendUseCase(reg, nil, nil, RecommendConfig{MaxKlines: 5}, nil)
	_, err := uc.RecommendPattern(context.Background(), models.RecommendRequest{
		Klines: risingKlines(6), CurrentPrice: 105, TickSpacing: 10,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecommendSigma(t *testing.T) {
	uc := newRecommender(nil)
	resp, err := uc.RecommendSigma(context.Background(), models.SigmaRecommendRequest{
		Klines:       risingKlines(48),
		CurrentPrice: 147,
		TickSpacing:  60,
		FeeRate:      0.0025,
		CapitalUSD:   5000,
		HorizonDays:  7,
	})
	require.NoError(t, err)

	assert.Equal(t, models.RangeBalanced, resp.Balanced.RangeType)
	assert.Equal(t, models.RangeNarrow, resp.Narrow.RangeType)
	assert.Equal(t, models.RangeBacktest, resp.BestBacktest.RangeType)
	require.NotNil(t, resp.BestBacktest.InsightData)
	assert.Equal(t, string(models.RangeBacktest), resp.BestBacktest.InsightData.RangeType)
	assert.Greater(t, resp.Balanced.WidthPct, resp.Narrow.WidthPct)

	assert.Equal(t, 7.0, resp.HorizonDays)
	assert.GreaterOrEqual(t, resp.Volatility.SigmaAnnual, 0.05)
	assert.Greater(t, resp.Volatility.SigmaT, 0.0)
	for _, key := range []string{"balanced", "narrow", "best_backtest"} {
		assert.Equal(t, 48, resp.Series[key].Len(), key)
	}
}

func TestRecommendSigmaDefaultsHorizon(t *testing.T) {
	uc := newRecommender(nil)
	resp, err := uc.RecommendSigma(context.Background(), models.SigmaRecommendRequest{
		Klines: risingKlines(24), CurrentPrice: 123, TickSpacing: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, strategy.DefaultHorizonDays, resp.HorizonDays)
}

func TestRecommendPool(t *testing.T) {
	store := newMemStore()
	seedHourlyBars(t, store, risingCloses(48))
	uc := newRecommender(NewBarsUseCase(store, poolConfig(), nil, 0, nil))
	ctx := context.Background()

	res, err := uc.RecommendPool(ctx, models.PoolRecommendRequest{
		PoolID: poolA, Strategy: "sigma", Interval: "1h", Limit: 720, HorizonDays: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Sigma)
	assert.Nil(t, res.Pattern)
	assert.Equal(t, 147.0, res.Sigma.CurrentPrice)
	assert.Equal(t, 0.0025, res.Sigma.PoolFeeRate)
	assert.Same(t, res.Sigma, res.Response())

	res, err = uc.RecommendPool(ctx, models.PoolRecommendRequest{
		PoolID: poolA, Interval: "1h", Profile: "conservative",
	})
	require.NoError(t, err)
	assert.Equal(t, strategy.NamePattern, res.Strategy)
	require.NotNil(t, res.Pattern)
	assert.Len(t, res.Pattern.Top3, 3)

	_, err = uc.RecommendPool(ctx, models.PoolRecommendRequest{PoolID: "0xmissing", Interval: "1h"})
	assert.ErrorIs(t, err, domrepo.ErrPoolNotFound)

	_, err = uc.RecommendPool(ctx, models.PoolRecommendRequest{PoolID: poolA, Interval: "1d"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
