package indexer

import (
	"math/big"
	"testing"

	"LPQuant/internal/domain/models"
	"LPQuant/internal/domain/repository"
	"LPQuant/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPool = "0xtest_pool"

func x64(v float64) *big.Int {
	f := new(big.Float).SetPrec(256).SetFloat64(v)
	f.SetMantExp(f, 64)
	n, _ := f.Int(nil)
	return n
}

func TestSqrtPriceX64ToPrice(t *testing.T) {
	tests := []struct {
		name   string
		sqrt   *big.Int
		decA   int
		decB   int
		want   float64
		within float64
	}{
		{"identity", new(big.Int).Lsh(big.NewInt(1), 64), 6, 6, 1.0, 1e-12},
		{"sui_usdc", x64(0.05916079783099616), 9, 6, 3.50, 0.01},
		{"usdc_sui_raw", x64(16.911534525), 6, 9, 0.286, 0.01},
		{"zero", big.NewInt(0), 9, 6, 0, 0},
		{"nil", nil, 9, 6, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, SqrtPriceX64ToPrice(tc.sqrt, tc.decA, tc.decB), tc.within)
		})
	}
}

func event(pool string, atob bool, in, out string, sqrt *big.Int) models.EventNode {
	return models.EventNode{
		JSON: map[string]interface{}{
			"pool":             pool,
			"atob":             atob,
			"amount_in":        in,
			"amount_out":       out,
			"after_sqrt_price": sqrt.String(),
		},
		TxDigest:  "tx",
		EventSeq:  1,
		Timestamp: 1700000000000,
	}
}

func TestParseSwapEvent(t *testing.T) {
	pools := PoolSet{testPool: {DecimalsA: 9, DecimalsB: 6}}

	t.Run("atob", func(t *testing.T) {
		s, err := ParseSwapEvent(event(testPool, true, "1000000000", "3500000", x64(0.05916079783099616)), pools)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.InDelta(t, 3.50, s.Price, 0.01)
		assert.InDelta(t, 1.0, s.VolumeA, 1e-9)
		assert.InDelta(t, 3.5, s.VolumeB, 1e-9)
		assert.Equal(t, testPool, s.PoolID)
		assert.Equal(t, int64(1700000000000), s.TimestampMs)
	})

	t.Run("btoa volumes", func(t *testing.T) {
		s, err := ParseSwapEvent(event(testPool, false, "7000000", "2000000000", x64(0.05916079783099616)), pools)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.False(t, s.AtoB)
		assert.InDelta(t, 2.0, s.VolumeA, 1e-9)
		assert.InDelta(t, 7.0, s.VolumeB, 1e-9)
	})

	t.Run("inverted", func(t *testing.T) {
		inv := PoolSet{testPool: {DecimalsA: 6, DecimalsB: 9, InvertPrice: true}}
		s, err := ParseSwapEvent(event(testPool, true, "18000000", "10000000000", x64(23.57)), inv)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.InDelta(t, 1.80, s.Price, 0.1)
	})

	t.Run("missing prefix", func(t *testing.T) {
		s, err := ParseSwapEvent(event("test_pool", true, "1", "1", x64(1)), pools)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, testPool, s.PoolID)
	})

	t.Run("unknown pool", func(t *testing.T) {
		s, err := ParseSwapEvent(event("0xunknown", true, "1000", "500", x64(1)), pools)
		assert.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("numeric amounts", func(t *testing.T) {
		ev := event(testPool, true, "0", "0", x64(0.05916079783099616))
		ev.JSON["amount_in"] = float64(1e9)
		ev.JSON["amount_out"] = float64(3.5e6)
		s, err := ParseSwapEvent(ev, pools)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, s.VolumeA, 1e-9)
	})

	t.Run("malformed", func(t *testing.T) {
		ev := event(testPool, true, "abc", "1", x64(1))
		_, err := ParseSwapEvent(ev, pools)
		assert.Error(t, err)
	})
}

func TestParsePageSkipsBadEvents(t *testing.T) {
	pools := PoolSet{testPool: {DecimalsA: 9, DecimalsB: 6}}
	page := &models.EventPage{Nodes: []models.EventNode{
		event(testPool, true, "1000000000", "3500000", x64(0.059)),
		event(testPool, true, "oops", "1", x64(0.059)),
		event("0xother", true, "1", "1", x64(0.059)),
	}}
	swaps, err := ParsePage(page, pools)
	assert.Error(t, err)
	assert.Len(t, swaps, 1)
}

func TestPoolsFromConfig(t *testing.T) {
	cfg := []config.PoolConfig{
		{PoolID: "0xAAA", DecimalsA: 9, DecimalsB: 6},
		{PoolID: "bbb", DecimalsA: 6, DecimalsB: 9, InvertPrice: true},
	}
	all := PoolsFromConfig(cfg)
	assert.Len(t, all, 2)
	assert.True(t, all["0xbbb"].InvertPrice)

	one := PoolsFromConfig(cfg, "0xaaa")
	assert.Len(t, one, 1)
	assert.Contains(t, one, "0xaaa")
}

func swap(ts int64, price, volB float64) *models.Swap {
	return &models.Swap{PoolID: testPool, TimestampMs: ts, Price: price, VolumeA: volB / price, VolumeB: volB}
}

func TestAggregateSwaps(t *testing.T) {
	const hour = int64(3_600_000)
	base := (int64(1700000000000) / hour) * hour

	t.Run("single bar", func(t *testing.T) {
		bars := AggregateSwaps([]*models.Swap{
			swap(base, 3.50, 100),
			swap(base+60_000, 3.55, 200),
			swap(base+120_000, 3.45, 150),
		}, repository.Interval1h, false)
		require.Len(t, bars, 1)
		b := bars[0]
		assert.Equal(t, 3.50, b.Open)
		assert.Equal(t, 3.55, b.High)
		assert.Equal(t, 3.45, b.Low)
		assert.Equal(t, 3.45, b.Close)
		assert.Equal(t, 450.0, b.Volume)
		assert.Equal(t, 3, b.TradeCount)
		assert.Equal(t, "1h", b.Interval)
		assert.Equal(t, base, b.OpenTime)
	})

	t.Run("separate buckets", func(t *testing.T) {
		bars := AggregateSwaps([]*models.Swap{
			swap(base+1000, 3.50, 1),
			swap(base+hour+1000, 3.60, 1),
			swap(base+2*hour+1000, 3.55, 1),
		}, repository.Interval1h, false)
		require.Len(t, bars, 3)
		assert.Equal(t, []float64{3.50, 3.60, 3.55}, []float64{bars[0].Open, bars[1].Open, bars[2].Open})
	})

	t.Run("forward fill", func(t *testing.T) {
		bars := AggregateSwaps([]*models.Swap{
			swap(base+3*hour+1000, 3.60, 1),
			swap(base+1000, 3.50, 1),
		}, repository.Interval1h, true)
		require.Len(t, bars, 4)
		for _, b := range bars[1:3] {
			assert.Equal(t, 3.50, b.Open)
			assert.Equal(t, 3.50, b.Close)
			assert.Zero(t, b.Volume)
			assert.Zero(t, b.TradeCount)
		}
		assert.Equal(t, 3.60, bars[3].Open)
		for i := 1; i < len(bars); i++ {
			assert.Equal(t, hour, bars[i].OpenTime-bars[i-1].OpenTime)
		}
	})

	t.Run("single swap", func(t *testing.T) {
		bars := AggregateSwaps([]*models.Swap{swap(base, 3.5, 1)}, repository.Interval1h, true)
		require.Len(t, bars, 1)
		b := bars[0]
		assert.True(t, b.Open == 3.5 && b.High == 3.5 && b.Low == 3.5 && b.Close == 3.5)
	})

	t.Run("empty and bad interval", func(t *testing.T) {
		assert.Empty(t, AggregateSwaps(nil, repository.Interval1h, true))
		assert.Empty(t, AggregateSwaps([]*models.Swap{swap(base, 1, 1)}, "2h", true))
	})
}

func TestBucketSpan(t *testing.T) {
	const hour = int64(3_600_000)
	base := (int64(1700000000000) / hour) * hour
	from, to := BucketSpan([]*models.Swap{swap(base+5000, 1, 1), swap(base+hour+10, 1, 1)}, repository.Interval1h)
	assert.Equal(t, base, from.UnixMilli())
	assert.Equal(t, base+2*hour, to.UnixMilli())

	from, to = BucketSpan(nil, repository.Interval1h)
	assert.True(t, from.IsZero() && to.IsZero())
}

func TestGroupByPool(t *testing.T) {
	a := &models.Swap{PoolID: "0xa"}
	b := &models.Swap{PoolID: "0xb"}
	g := GroupByPool([]*models.Swap{a, b, a})
	assert.Len(t, g["0xa"], 2)
	assert.Len(t, g["0xb"], 1)
}
