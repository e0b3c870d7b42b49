package usecase

import (
	"context"
	"testing"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/pkg/cache"
	"LPQuant/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolConfig() *config.Config {
	var cfg config.Config
	cfg.Indexer.Pools = []config.PoolConfig{{
		PoolID:      poolA,
		Symbol:      "SUI/USDC",
		DecimalsA:   6,
		DecimalsB:   6,
		TickSpacing: 60,
		FeeRate:     0.0025,
	}}
	return &cfg
}

func seedHourlyBars(t *testing.T, store *memStore, closes []float64) {
	t.Helper()
	hour := int64(time.Hour / time.Millisecond)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			PoolID:     poolA,
			Interval:   string(domrepo.Interval1h),
			OpenTime:   t0 + int64(i)*hour,
			Open:       c,
			High:       c * 1.002,
			Low:        c * 0.998,
			Close:      c,
			Volume:     10,
			TradeCount: 1,
		}
	}
	require.NoError(t, store.UpsertBars(context.Background(), bars))
}

func TestBarsUseCaseCacheAside(t *testing.T) {
	store := newMemStore()
	seedHourlyBars(t, store, []float64{1, 2, 3})
	mc := cache.NewMemoryCache()
	defer mc.Close()

	uc := NewBarsUseCase(store, poolConfig(), mc, time.Minute, nil)
	ctx := context.Background()

	res, err := uc.GetBars(ctx, GetBarsParams{PoolID: "0xAAA", Interval: "1h"})
	require.NoError(t, err)
	assert.Equal(t, poolA, res.PoolID)
	assert.Equal(t, domrepo.Interval1h, res.Interval)
	require.Len(t, res.Bars, 3)
	assert.Equal(t, 1, store.barReads)

	res, err = uc.GetBars(ctx, GetBarsParams{PoolID: poolA, Interval: "1h"})
	require.NoError(t, err)
	assert.Len(t, res.Bars, 3)
	assert.Equal(t, 3.0, res.Bars[2].Close)
	assert.Equal(t, 1, store.barReads)

	uc.Invalidate(ctx, poolA)
	_, err = uc.GetBars(ctx, GetBarsParams{PoolID: poolA, Interval: "1h"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.barReads)
}

func TestBarsUseCaseLimitAndEmpty(t *testing.T) {
	store := newMemStore()
	seedHourlyBars(t, store, []float64{1, 2, 3, 4, 5})
	uc := NewBarsUseCase(store, poolConfig(), nil, 0, nil)
	ctx := context.Background()

	res, err := uc.GetBars(ctx, GetBarsParams{PoolID: poolA, Interval: "1h", Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Bars, 2)
	assert.Equal(t, 4.0, res.Bars[0].Close)
	assert.Equal(t, 5.0, res.Bars[1].Close)

	res, err = uc.GetBars(ctx, GetBarsParams{PoolID: poolA, Interval: "1d"})
	require.NoError(t, err)
	assert.NotNil(t, res.Bars)
	assert.Empty(t, res.Bars)

	res, err = uc.GetBars(ctx, GetBarsParams{PoolID: poolA})
	require.NoError(t, err)
	assert.Equal(t, domrepo.Interval1h, res.Interval)
}

func TestBarsUseCaseErrors(t *testing.T) {
	uc := NewBarsUseCase(newMemStore(), poolConfig(), nil, 0, nil)
	ctx := context.Background()

	_, err := uc.GetBars(ctx, GetBarsParams{PoolID: "0xnope", Interval: "1h"})
	assert.ErrorIs(t, err, domrepo.ErrPoolNotFound)

	_, err = uc.GetBars(ctx, GetBarsParams{PoolID: poolA, Interval: "2h"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	now := time.Now()
	_, err = uc.GetBars(ctx, GetBarsParams{PoolID: poolA, From: now, To: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultBarsLimit},
		{-3, DefaultBarsLimit},
		{10, 10},
		{MaxBarsLimit, MaxBarsLimit},
		{MaxBarsLimit + 1, MaxBarsLimit},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, clampLimit(tc.in), "limit %d", tc.in)
	}
}
