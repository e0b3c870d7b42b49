package models

// StrategyParams is the per-request input shared by every range strategy.
type StrategyParams struct {
	CurrentPrice float64
	TickSpacing  int
	FeeRate      float64
	CapitalUSD   float64
	Profile      string
	HorizonDays  float64
	Strategies   []string

	// AnnualizeFactor overrides the estimator's bars-per-year when non-zero.
	AnnualizeFactor float64
	// Volatility, when set, is reused instead of re-estimating from history.
	Volatility *VolatilityEstimate
}

// RecommendRequest drives the pattern strategy with profile-weighted scoring.
type RecommendRequest struct {
	Klines       []Kline  `json:"klines" validate:"required,min=2,dive,min=5"`
	CurrentPrice float64  `json:"current_price" validate:"gt=0"`
	TickSpacing  int      `json:"tick_spacing" validate:"gt=0"`
	FeeRate      float64  `json:"fee_rate" validate:"gte=0,lt=1"`
	Profile      string   `json:"profile" default:"balanced" validate:"oneof=conservative balanced aggressive"`
	CapitalUSD   float64  `json:"capital_usd" default:"10000" validate:"gt=0"`
	Strategies   []string `json:"strategies" default:"[\"quantile\",\"volband\",\"swing\"]"`
}

// SigmaRecommendRequest drives the volatility-forecast strategy.
type SigmaRecommendRequest struct {
	Klines       []Kline `json:"klines" validate:"required,min=2,dive,min=5"`
	CurrentPrice float64 `json:"current_price" validate:"gt=0"`
	TickSpacing  int     `json:"tick_spacing" validate:"gt=0"`
	FeeRate      float64 `json:"fee_rate" validate:"gte=0,lt=1"`
	CapitalUSD   float64 `json:"capital_usd" default:"10000" validate:"gt=0"`
	HorizonDays  float64 `json:"horizon_days" default:"7" validate:"gt=0,lte=365"`
}

// PoolRecommendRequest runs a strategy over bars indexed for a known pool.
type PoolRecommendRequest struct {
	PoolID      string   `param:"pool_id" json:"-" validate:"required"`
	Strategy    string   `json:"strategy" validate:"omitempty,oneof=pattern sigma"`
	Profile     string   `json:"profile" default:"balanced" validate:"oneof=conservative balanced aggressive"`
	HorizonDays float64  `json:"horizon_days" default:"7" validate:"gt=0,lte=365"`
	CapitalUSD  float64  `json:"capital_usd" default:"10000" validate:"gt=0"`
	Interval    string   `json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Limit       int      `json:"limit" default:"720" validate:"gte=2,lte=5000"`
	Strategies  []string `json:"strategies" default:"[\"quantile\",\"volband\",\"swing\"]"`
}

type RecommendResponse struct {
	Top3         []CandidateResult      `json:"top3"`
	Extreme2Pct  CandidateResult        `json:"extreme_2pct"`
	Extreme5Pct  CandidateResult        `json:"extreme_5pct"`
	Series       map[string]ChartSeries `json:"series"`
	CurrentPrice float64                `json:"current_price"`
	PoolFeeRate  float64                `json:"pool_fee_rate"`
}

type SigmaRecommendResponse struct {
	Balanced     CandidateResult        `json:"balanced"`
	Narrow       CandidateResult        `json:"narrow"`
	BestBacktest CandidateResult        `json:"best_backtest"`
	Volatility   VolatilityInfo         `json:"volatility"`
	HorizonDays  float64                `json:"horizon_days"`
	Series       map[string]ChartSeries `json:"series"`
	CurrentPrice float64                `json:"current_price"`
	PoolFeeRate  float64                `json:"pool_fee_rate"`
}
