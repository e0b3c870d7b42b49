package candidates

import (
	"math"
	"sort"
	"testing"

	"LPQuant/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVol = models.VolatilityEstimate{
	SigmaAnnual:      0.80,
	SigmaRealized:    0.75,
	SigmaATR:         0.85,
	SigmaEWMA:        0.80,
	Regime:           models.RegimeNormal,
	RegimeMultiplier: 1.0,
}

func TestStayProbability(t *testing.T) {
	ks := []float64{0.5, 0.75, 1.0, 1.5, 1.75, 2.0, 2.5, 3.0}
	for i := 1; i < len(ks); i++ {
		assert.Less(t, StayProbability(ks[i-1]), StayProbability(ks[i]))
	}
	for _, k := range []float64{0, 0.1, 0.5, 1, 2, 3, 5, 10} {
		p := StayProbability(k)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Less(t, StayProbability(0.01), 0.01)
	assert.Greater(t, StayProbability(5), 0.99)

	// erf(k/√2) damped by (1 − e^(−k²))
	assert.InDelta(t, 0.431542, StayProbability(1), 1e-6)
	assert.InDelta(t, 0.937017, StayProbability(2), 1e-6)
}

func TestSigmaGeneratesBalancedAndNarrow(t *testing.T) {
	got := Sigma(3.5, testVol, 7)
	require.Len(t, got, 6)

	counts := map[models.RangeType]int{}
	for _, c := range got {
		counts[c.RangeType]++
	}
	assert.Equal(t, 3, counts[models.RangeBalanced])
	assert.Equal(t, 3, counts[models.RangeNarrow])
}

func TestSigmaRangesAreLogSymmetric(t *testing.T) {
	price := 3.5
	for _, c := range Sigma(price, testVol, 7) {
		assert.Less(t, c.Pa, price)
		assert.Greater(t, c.Pb, price)
		assert.InDelta(t, math.Log(price/c.Pa), math.Log(c.Pb/price), 1e-10)
	}
}

func TestSigmaWidthAndProbabilityGrowWithK(t *testing.T) {
	for _, rt := range []models.RangeType{models.RangeBalanced, models.RangeNarrow} {
		var typed []models.RangeCandidate
		for _, c := range Sigma(3.5, testVol, 7) {
			if c.RangeType == rt {
				typed = append(typed, c)
			}
		}
		sort.Slice(typed, func(i, j int) bool { return typed[i].KSigma < typed[j].KSigma })
		for i := 1; i < len(typed); i++ {
			assert.Greater(t, typed[i].Pb-typed[i].Pa, typed[i-1].Pb-typed[i-1].Pa)
			assert.Greater(t, typed[i].EstimatedProb, typed[i-1].EstimatedProb)
		}
	}
}

func TestSigmaLongerHorizonIsWider(t *testing.T) {
	week := Sigma(3.5, testVol, 7)
	fortnight := Sigma(3.5, testVol, 14)
	require.Equal(t, len(week), len(fortnight))
	for i := range week {
		assert.Equal(t, week[i].KSigma, fortnight[i].KSigma)
		assert.Greater(t, fortnight[i].Pb-fortnight[i].Pa, week[i].Pb-week[i].Pa)
	}
}

func TestSigmaTFloor(t *testing.T) {
	assert.Equal(t, SigmaTFloor, SigmaT(0, 7))
	assert.InDelta(t, 0.8*math.Sqrt(7.0/365), SigmaT(0.8, 7), 1e-12)
	assert.Nil(t, Sigma(0, testVol, 7))
}
