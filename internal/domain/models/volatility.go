package models

type Regime string

const (
	RegimeLow    Regime = "low"
	RegimeNormal Regime = "normal"
	RegimeHigh   Regime = "high"
)

// VolatilityEstimate is the blended forward-looking sigma for one price history.
type VolatilityEstimate struct {
	SigmaAnnual      float64 `json:"sigma_annual"`
	SigmaRealized    float64 `json:"sigma_realized"`
	SigmaATR         float64 `json:"sigma_atr"`
	SigmaEWMA        float64 `json:"sigma_ewma"`
	Regime           Regime  `json:"regime"`
	RegimeMultiplier float64 `json:"regime_multiplier"`
}

// VolatilityInfo is the response view, adding the horizon-scaled sigma.
type VolatilityInfo struct {
	VolatilityEstimate
	SigmaT float64 `json:"sigma_T"`
}
