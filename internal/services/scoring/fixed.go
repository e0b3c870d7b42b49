package scoring

import (
	"math"

	"LPQuant/internal/domain/models"
	"LPQuant/pkg/util"
)

const (
	weightProb       = 0.50
	weightInRange    = 0.30
	weightEfficiency = 0.20

	// efficiencyCap is the capital efficiency that earns the full efficiency score.
	efficiencyCap = 50.0
)

// Selection is the outcome of fixed-formula selection. Any field is nil when
// no candidate of that kind exists.
type Selection struct {
	Balanced *models.ScoredCandidate
	Narrow   *models.ScoredCandidate
	Backtest *models.ScoredCandidate
}

// efficiencyScore maps capital efficiency onto [0, 1] on a log scale.
func efficiencyScore(eff float64) float64 {
	if eff <= 1 {
		return 0
	}
	return math.Min(math.Log(eff)/math.Log(efficiencyCap), 1)
}

// ScoreFixed scores sigma candidates by stay probability, historical
// in-range time and capital efficiency, scaled to 0..100.
func ScoreFixed(cands []models.EvaluatedCandidate) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, len(cands))
	for i, c := range cands {
		s := weightProb*c.EstimatedProb +
			weightInRange*(c.Metrics.InRangePct/100) +
			weightEfficiency*efficiencyScore(c.Metrics.CapitalEfficiency)

		data := InsightDataFor(c)
		out[i] = models.ScoredCandidate{
			EvaluatedCandidate: c,
			Score:              util.Round(s*100, 2),
			Insight:            Insight(c),
			InsightData:        &data,
		}
	}
	return out
}

// SelectFixed picks the best balanced and narrow candidates by score and the
// best back-test by raw LP-vs-HODL. The first maximum wins ties.
func SelectFixed(scored []models.ScoredCandidate) Selection {
	var sel Selection
	for i := range scored {
		c := &scored[i]
		switch c.RangeType {
		case models.RangeBalanced:
			if sel.Balanced == nil || c.Score > sel.Balanced.Score {
				sel.Balanced = c
			}
		case models.RangeNarrow:
			if sel.Narrow == nil || c.Score > sel.Narrow.Score {
				sel.Narrow = c
			}
		}
		if sel.Backtest == nil || c.Metrics.LpVsHodlPct > sel.Backtest.Metrics.LpVsHodlPct {
			sel.Backtest = c
		}
	}
	return sel
}
