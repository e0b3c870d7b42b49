package scoring

import (
	"math"
	"testing"

	"LPQuant/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluated(label string, rt models.RangeType, m models.BacktestMetrics) models.EvaluatedCandidate {
	return models.EvaluatedCandidate{
		AlignedCandidate: models.AlignedCandidate{
			RangeCandidate: models.RangeCandidate{Label: label, RangeType: rt},
			WidthPct:       4,
		},
		Metrics: m,
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{0, 50, 100}, normalize([]float64{1, 2, 3}, false))
	assert.Equal(t, []float64{100, 50, 0}, normalize([]float64{1, 2, 3}, true))
	assert.Equal(t, []float64{50, 50}, normalize([]float64{7, 7}, true))
	assert.Equal(t, []float64{0, 0, 100}, normalize([]float64{0, math.NaN(), 5}, false))
	assert.Empty(t, normalize(nil, false))
}

func TestScoreProfileSingleCandidateIsMidpoint(t *testing.T) {
	for _, p := range Profiles() {
		got, err := ScoreProfile([]models.EvaluatedCandidate{
			evaluated("only", models.RangePattern, models.BacktestMetrics{
				InRangePct: 80, LpVsHodlPct: -3, MaxILPct: 4, MaxDrawdownPct: 6, CapitalEfficiency: 9, BoundaryTouches: 2,
			}),
		}, p)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 50.0, got[0].Score, p)
	}
}

func TestScoreProfileConservative(t *testing.T) {
	safe := evaluated("safe", models.RangePattern, models.BacktestMetrics{InRangePct: 100, MaxILPct: 1, MaxDrawdownPct: 1, LpVsHodlPct: -1})
	risky := evaluated("risky", models.RangePattern, models.BacktestMetrics{InRangePct: 40, MaxILPct: 9, MaxDrawdownPct: 12, LpVsHodlPct: 2})

	got, err := ScoreProfile([]models.EvaluatedCandidate{risky, safe}, ProfileConservative)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "safe", got[0].Label)
	assert.Equal(t, 90.0, got[0].Score)
	assert.Equal(t, 10.0, got[1].Score)
	assert.NotEmpty(t, got[0].Insight)
	assert.Nil(t, got[0].InsightData)
}

// rangeResult pairs a width with the metrics a back-test produces for it:
// capital efficiency is sqrt(pb/pa), so it rises with width.
func rangeResult(label string, width, eff, inRange float64) models.EvaluatedCandidate {
	c := evaluated(label, models.RangePattern, models.BacktestMetrics{
		InRangePct: inRange, CapitalEfficiency: eff, MaxILPct: 2, MaxDrawdownPct: 3,
	})
	c.WidthPct = width
	return c
}

func TestScoreProfileAggressiveNarrowestRanksFirst(t *testing.T) {
	cands := []models.EvaluatedCandidate{
		rangeResult("wide", 29.5, 1.19, 87.5),
		rangeResult("mid", 16, 1.10, 50),
		rangeResult("tight", 9.4, 1.05, 29),
	}

	got, err := ScoreProfile(cands, ProfileAggressive)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"tight", "mid", "wide"}, []string{got[0].Label, got[1].Label, got[2].Label})
	// width 0.5*100 + tied lp_vs_hodl 0.4*50 + lowest in-range 0
	assert.Equal(t, 70.0, got[0].Score)
	assert.Equal(t, 30.0, got[2].Score)
}

func TestScoreProfileAggressiveLpVsHodlBreaksWidthTie(t *testing.T) {
	a := rangeResult("a", 10, 1.05, 40)
	b := rangeResult("b", 10, 1.05, 40)
	b.Metrics.LpVsHodlPct = 1.2

	got, err := ScoreProfile([]models.EvaluatedCandidate{a, b}, ProfileAggressive)
	require.NoError(t, err)
	assert.Equal(t, "b", got[0].Label)
	assert.Equal(t, 70.0, got[0].Score)
	assert.Equal(t, 30.0, got[1].Score)
}

func TestScoreProfileBalancedRewardsConcentration(t *testing.T) {
	tight := rangeResult("tight", 9.4, 1.05, 60)
	wide := rangeResult("wide", 29.5, 1.19, 60)

	got, err := ScoreProfile([]models.EvaluatedCandidate{wide, tight}, ProfileBalanced)
	require.NoError(t, err)
	assert.Equal(t, "tight", got[0].Label)
	assert.Equal(t, 60.0, got[0].Score)
	assert.Equal(t, 40.0, got[1].Score)
}

func TestScoreProfileUnknown(t *testing.T) {
	_, err := ScoreProfile(nil, "yolo")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestProfileWeightsIsACopy(t *testing.T) {
	w, ok := ProfileWeights(ProfileBalanced)
	require.True(t, ok)
	w[0].Weight = 99

	again, _ := ProfileWeights(ProfileBalanced)
	assert.Equal(t, 0.30, again[0].Weight)

	for _, p := range Profiles() {
		ws, _ := ProfileWeights(p)
		sum := 0.0
		for _, x := range ws {
			sum += x.Weight
		}
		assert.InDelta(t, 1.0, sum, 1e-9, p)
	}
}

func TestEfficiencyScore(t *testing.T) {
	assert.Equal(t, 0.0, efficiencyScore(1))
	assert.Equal(t, 0.0, efficiencyScore(0.5))
	assert.InDelta(t, 1.0, efficiencyScore(50), 1e-12)
	assert.Equal(t, 1.0, efficiencyScore(500))
	assert.InDelta(t, math.Log(10)/math.Log(50), efficiencyScore(10), 1e-12)
}

func TestScoreFixed(t *testing.T) {
	c := evaluated("balanced_1.50s", models.RangeBalanced, models.BacktestMetrics{InRangePct: 90, CapitalEfficiency: 50})
	c.EstimatedProb = 0.8
	c.KSigma = 1.5

	got := ScoreFixed([]models.EvaluatedCandidate{c})
	require.Len(t, got, 1)
	// 0.5*0.8 + 0.3*0.9 + 0.2*1
	assert.Equal(t, 87.0, got[0].Score)
	require.NotNil(t, got[0].InsightData)
	assert.Equal(t, "balanced", got[0].InsightData.RangeType)
	assert.Equal(t, 1.5, got[0].InsightData.KSigma)
}

func TestSelectFixed(t *testing.T) {
	mk := func(label string, rt models.RangeType, score, lpVsHodl float64) models.ScoredCandidate {
		return models.ScoredCandidate{
			EvaluatedCandidate: evaluated(label, rt, models.BacktestMetrics{LpVsHodlPct: lpVsHodl}),
			Score:              score,
		}
	}
	scored := []models.ScoredCandidate{
		mk("b1", models.RangeBalanced, 60, -2),
		mk("b2", models.RangeBalanced, 72, -1),
		mk("n1", models.RangeNarrow, 55, 0.5),
		mk("n2", models.RangeNarrow, 51, -4),
	}
	sel := SelectFixed(scored)
	require.NotNil(t, sel.Balanced)
	require.NotNil(t, sel.Narrow)
	require.NotNil(t, sel.Backtest)
	assert.Equal(t, "b2", sel.Balanced.Label)
	assert.Equal(t, "n1", sel.Narrow.Label)
	assert.Equal(t, "n1", sel.Backtest.Label)

	empty := SelectFixed(nil)
	assert.Nil(t, empty.Balanced)
	assert.Nil(t, empty.Backtest)
}

func TestInsight(t *testing.T) {
	bal := evaluated("b", models.RangeBalanced, models.BacktestMetrics{LpVsHodlPct: 1.23})
	bal.KSigma, bal.WidthPct, bal.EstimatedProb = 1.75, 12.345, 0.8312
	assert.Equal(t,
		"1.8σ range (12.3% width) with 83% estimated stay probability. LP outperforms HODL by 1.2%.",
		Insight(bal))

	nar := evaluated("n", models.RangeNarrow, models.BacktestMetrics{LpVsHodlPct: -7.5, MaxILPct: 12.04})
	nar.KSigma, nar.WidthPct, nar.EstimatedProb = 0.5, 3.0, 0.084
	assert.Equal(t,
		"Tight 0.5σ range (3.0% width) — 8% stay probability, high efficiency. LP underperforms HODL by 7.5%. max IL reached 12.0%.",
		Insight(nar))

	pat := evaluated("q", models.RangePattern, models.BacktestMetrics{InRangePct: 87.5, LpVsHodlPct: -2})
	pat.WidthPct = 22
	assert.Equal(t, "Wide range (22.0% width) with 88% historical in-range time.", Insight(pat))
}
