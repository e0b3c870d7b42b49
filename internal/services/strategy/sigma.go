package strategy

import (
	"LPQuant/internal/domain/models"
	"LPQuant/internal/domain/service"
	"LPQuant/internal/services/candidates"
	"LPQuant/internal/services/scoring"
	"LPQuant/internal/services/volatility"
)

// DefaultHorizonDays applies when params carry no horizon.
const DefaultHorizonDays = 7.0

// SigmaStrategy sizes log-symmetric ranges from a blended volatility
// forecast and scores them with the fixed probability formula.
type SigmaStrategy struct {
	estimator *volatility.Estimator
}

var _ service.RangeStrategy = (*SigmaStrategy)(nil)

func NewSigmaStrategy(est *volatility.Estimator) *SigmaStrategy {
	if est == nil {
		est = volatility.New(volatility.DefaultAnnualizeFactor)
	}
	return &SigmaStrategy{estimator: est}
}

func (s *SigmaStrategy) Name() string { return NameSigma }

// Volatility returns the estimate Generate sizes its ranges from.
func (s *SigmaStrategy) Volatility(history models.PriceSeries, params models.StrategyParams) models.VolatilityEstimate {
	est := s.estimator
	if params.AnnualizeFactor > 0 && params.AnnualizeFactor != est.AnnualizeFactor {
		cp := *est
		cp.AnnualizeFactor = params.AnnualizeFactor
		est = &cp
	}
	return est.Estimate(history)
}

func (s *SigmaStrategy) Generate(history models.PriceSeries, params models.StrategyParams) ([]models.RangeCandidate, error) {
	if params.Volatility != nil {
		return candidates.Sigma(params.CurrentPrice, *params.Volatility, horizon(params)), nil
	}
	vol := s.Volatility(history, params)
	return candidates.Sigma(params.CurrentPrice, vol, horizon(params)), nil
}

func (s *SigmaStrategy) Score(cands []models.EvaluatedCandidate, _ models.StrategyParams) ([]models.ScoredCandidate, error) {
	scored := scoring.ScoreFixed(cands)
	scoring.SortByScore(scored)
	return scored, nil
}

func horizon(params models.StrategyParams) float64 {
	if params.HorizonDays > 0 {
		return params.HorizonDays
	}
	return DefaultHorizonDays
}
