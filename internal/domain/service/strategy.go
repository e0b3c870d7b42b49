package service

import (
	"LPQuant/internal/domain/models"
)

// RangeStrategy generates candidate ranges from a price history and ranks
// them once they have been aligned and back-tested.
type RangeStrategy interface {
	Name() string
	Generate(history models.PriceSeries, params models.StrategyParams) ([]models.RangeCandidate, error)
	Score(cands []models.EvaluatedCandidate, params models.StrategyParams) ([]models.ScoredCandidate, error)
}

// VolatilityEstimator produces the blended sigma for a price history.
type VolatilityEstimator interface {
	Estimate(history models.PriceSeries) models.VolatilityEstimate
}
