package models

type RangeType string

const (
	RangeBalanced RangeType = "balanced"
	RangeNarrow   RangeType = "narrow"
	RangePattern  RangeType = "pattern"
	RangeExtreme  RangeType = "extreme"
	RangeBacktest RangeType = "backtest"
)

// RangeCandidate is a requested price range before tick alignment.
type RangeCandidate struct {
	Pa            float64
	Pb            float64
	Label         string
	RangeType     RangeType
	KSigma        float64
	EstimatedProb float64
}

// AlignedCandidate is a RangeCandidate snapped to the pool tick lattice.
// AlignedPa < AlignedPb always holds.
type AlignedCandidate struct {
	RangeCandidate
	TickLower int
	TickUpper int
	AlignedPa float64
	AlignedPb float64
	WidthPct  float64
}

// EvaluatedCandidate carries the back-test outcome of an aligned candidate.
type EvaluatedCandidate struct {
	AlignedCandidate
	Metrics BacktestMetrics
	Series  ChartSeries
}

// ScoredCandidate is terminal: it is not mutated after scoring.
type ScoredCandidate struct {
	EvaluatedCandidate
	Score       float64
	Insight     string
	InsightData *InsightData
}

type InsightData struct {
	RangeType          string  `json:"range_type"`
	KSigma             float64 `json:"k_sigma"`
	EstimatedProb      float64 `json:"estimated_prob"`
	WidthPct           float64 `json:"width_pct"`
	BacktestInRangePct float64 `json:"backtest_in_range_pct"`
	LpVsHodlPct        float64 `json:"lp_vs_hodl_pct"`
	LpOutperforms      bool    `json:"lp_outperforms"`
	MaxILPct           float64 `json:"max_il_pct"`
	ILWarning          bool    `json:"il_warning"`
	CapitalEfficiency  float64 `json:"capital_efficiency"`
}

// CandidateResult is the wire projection of a ScoredCandidate.
type CandidateResult struct {
	Strategy      string          `json:"strategy"`
	RangeType     RangeType       `json:"range_type,omitempty"`
	Pa            float64         `json:"pa"`
	Pb            float64         `json:"pb"`
	TickLower     int             `json:"tick_lower"`
	TickUpper     int             `json:"tick_upper"`
	WidthPct      float64         `json:"width_pct"`
	KSigma        float64         `json:"k_sigma,omitempty"`
	EstimatedProb float64         `json:"estimated_prob,omitempty"`
	Metrics       BacktestMetrics `json:"metrics"`
	Score         float64         `json:"score"`
	Insight       string          `json:"insight"`
	InsightData   *InsightData    `json:"insight_data,omitempty"`
}

// Result projects the candidate for the response body.
func (c ScoredCandidate) Result() CandidateResult {
	return CandidateResult{
		Strategy:      c.Label,
		RangeType:     c.RangeType,
		Pa:            c.AlignedPa,
		Pb:            c.AlignedPb,
		TickLower:     c.TickLower,
		TickUpper:     c.TickUpper,
		WidthPct:      c.WidthPct,
		KSigma:        c.KSigma,
		EstimatedProb: c.EstimatedProb,
		Metrics:       c.Metrics,
		Score:         c.Score,
		Insight:       c.Insight,
		InsightData:   c.InsightData,
	}
}
