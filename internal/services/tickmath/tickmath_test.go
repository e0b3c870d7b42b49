package tickmath

import (
	"math"
	"testing"

	"LPQuant/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceToTick(t *testing.T) {
	tick, err := PriceToTick(1)
	require.NoError(t, err)
	assert.Equal(t, 0, tick)

	tick, err = PriceToTick(1.0001)
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, tick)

	tick, err = PriceToTick(0.5)
	require.NoError(t, err)
	assert.Equal(t, int(math.Floor(math.Log(0.5)/math.Log(1.0001))), tick)
	assert.Less(t, tick, 0)

	_, err = PriceToTick(0)
	assert.ErrorIs(t, err, ErrNonPositivePrice)
	_, err = PriceToTick(-3)
	assert.ErrorIs(t, err, ErrNonPositivePrice)
}

func TestTickToPriceInverseOnLattice(t *testing.T) {
	for _, tick := range []int{-50000, -600, 0, 60, 12345} {
		p := TickToPrice(tick)
		back := math.Log(p) / math.Log(1.0001)
		assert.InDelta(t, float64(tick), back, 1e-6)
	}
}

func TestAlign(t *testing.T) {
	cases := []struct {
		tick, spacing, down, up int
	}{
		{125, 60, 120, 180},
		{120, 60, 120, 120},
		{-125, 60, -180, -120},
		{-120, 60, -120, -120},
		{0, 10, 0, 0},
		{-1, 10, -10, 0},
		{1, 1, 1, 1},
	}
	for _, c := range cases {
		down, err := AlignDown(c.tick, c.spacing)
		require.NoError(t, err)
		up, err := AlignUp(c.tick, c.spacing)
		require.NoError(t, err)
		assert.Equal(t, c.down, down, "AlignDown(%d,%d)", c.tick, c.spacing)
		assert.Equal(t, c.up, up, "AlignUp(%d,%d)", c.tick, c.spacing)
	}
}

func TestAlignIdempotent(t *testing.T) {
	for _, tick := range []int{-601, -7, 0, 3, 599, 4242} {
		d, _ := AlignDown(tick, 60)
		dd, _ := AlignDown(d, 60)
		assert.Equal(t, d, dd)

		u, _ := AlignUp(tick, 60)
		uu, _ := AlignUp(u, 60)
		assert.Equal(t, u, uu)
	}
}

func TestAlignRejectsSpacing(t *testing.T) {
	_, err := AlignDown(10, 0)
	assert.ErrorIs(t, err, ErrNonPositiveSpacing)
	_, err = AlignUp(10, -60)
	assert.ErrorIs(t, err, ErrNonPositiveSpacing)
}

func TestAlignCandidateWidensCollapsedRange(t *testing.T) {
	// Both bounds fall inside the same spacing cell at tick 0.
	c := models.RangeCandidate{Pa: 1.0, Pb: 1.0, Label: "flat"}
	a, err := Align(c, 60, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 0, a.TickLower)
	assert.Equal(t, 60, a.TickUpper)
	assert.Less(t, a.AlignedPa, a.AlignedPb)
	assert.Greater(t, a.WidthPct, 0.0)
}

func TestAlignCandidateSnapsOutward(t *testing.T) {
	c := models.RangeCandidate{Pa: 3.4, Pb: 3.6, Label: "x"}
	a, err := Align(c, 60, 3.5)
	require.NoError(t, err)
	assert.LessOrEqual(t, a.AlignedPa, 3.4)
	assert.GreaterOrEqual(t, a.AlignedPb, 3.6*(1-1e-9))
	assert.Zero(t, a.TickLower%60)
	assert.Zero(t, a.TickUpper%60)
	assert.InDelta(t, (a.AlignedPb-a.AlignedPa)/3.5*100, a.WidthPct, 1e-4)
}
