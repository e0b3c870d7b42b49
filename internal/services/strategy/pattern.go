// Package strategy adapts the candidate generators and scorers to the
// service.RangeStrategy interface.
package strategy

import (
	"LPQuant/internal/domain/models"
	"LPQuant/internal/domain/service"
	"LPQuant/internal/services/candidates"
	"LPQuant/internal/services/scoring"
)

const (
	NamePattern = "pattern"
	NameSigma   = "sigma"
)

// DefaultPatternStrategies runs when a request names no generators.
var DefaultPatternStrategies = []string{
	candidates.StrategyQuantile,
	candidates.StrategyVolBand,
	candidates.StrategySwing,
}

// PatternStrategy proposes ranges from historical price structure and ranks
// them with the requested risk profile.
type PatternStrategy struct{}

var _ service.RangeStrategy = (*PatternStrategy)(nil)

func NewPatternStrategy() *PatternStrategy { return &PatternStrategy{} }

func (s *PatternStrategy) Name() string { return NamePattern }

func (s *PatternStrategy) Generate(history models.PriceSeries, params models.StrategyParams) ([]models.RangeCandidate, error) {
	names := params.Strategies
	if len(names) == 0 {
		names = DefaultPatternStrategies
	}
	return candidates.Pattern(history.Closes(), names), nil
}

func (s *PatternStrategy) Score(cands []models.EvaluatedCandidate, params models.StrategyParams) ([]models.ScoredCandidate, error) {
	profile := params.Profile
	if profile == "" {
		profile = scoring.ProfileBalanced
	}
	return scoring.ScoreProfile(cands, profile)
}
