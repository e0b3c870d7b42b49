package scoring

import (
	"fmt"
	"sort"

	"LPQuant/internal/domain/models"
	"LPQuant/pkg/util"
)

// ScoreProfile ranks candidates by the weighted sum of their normalized
// metrics under the named risk profile, best first.
func ScoreProfile(cands []models.EvaluatedCandidate, profile string) ([]models.ScoredCandidate, error) {
	weights, ok := ProfileWeights(profile)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}

	scores := make([]float64, len(cands))
	for _, w := range weights {
		raw := make([]float64, len(cands))
		for i, c := range cands {
			raw[i] = w.Metric.value(c)
		}
		for i, n := range normalize(raw, w.Inverted) {
			scores[i] += w.Weight * n
		}
	}

	out := make([]models.ScoredCandidate, len(cands))
	for i, c := range cands {
		out[i] = models.ScoredCandidate{
			EvaluatedCandidate: c,
			Score:              util.Round(scores[i], 2),
			Insight:            Insight(c),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// SortByScore orders scored candidates best first, keeping ties stable.
func SortByScore(cands []models.ScoredCandidate) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
}
