package models

// BacktestMetrics summarises one simulated position run. Fees are not modelled.
type BacktestMetrics struct {
	InRangePct          float64 `json:"in_range_pct"`
	LpVsHodlPct         float64 `json:"lp_vs_hodl_pct"`
	MaxILPct            float64 `json:"max_il_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	CapitalEfficiency   float64 `json:"capital_efficiency"`
	BoundaryTouches     int     `json:"boundary_touches"`
	TouchCount          int     `json:"touch_count"`
	MeanTimeToExitHours float64 `json:"mean_time_to_exit_hours"`
}

type MarkerPosition string

const (
	MarkerAboveBar MarkerPosition = "aboveBar"
	MarkerBelowBar MarkerPosition = "belowBar"
	MarkerInBar    MarkerPosition = "inBar"
)

type MarkerShape string

const (
	ShapeCircle    MarkerShape = "circle"
	ShapeSquare    MarkerShape = "square"
	ShapeArrowUp   MarkerShape = "arrowUp"
	ShapeArrowDown MarkerShape = "arrowDown"
)

type ChartMarker struct {
	Time     int64          `json:"time"`
	Position MarkerPosition `json:"position"`
	Color    string         `json:"color,omitempty"`
	Shape    MarkerShape    `json:"shape"`
	Text     string         `json:"text"`
}

// ChartSeries holds parallel arrays of equal length plus range-crossing markers.
type ChartSeries struct {
	Timestamps []int64       `json:"timestamps"`
	LpValues   []float64     `json:"lp_values"`
	HodlValues []float64     `json:"hodl_values"`
	ILPct      []float64     `json:"il_pct"`
	Prices     []float64     `json:"prices"`
	Markers    []ChartMarker `json:"markers"`
}

// Len returns the number of points in the series.
func (s ChartSeries) Len() int { return len(s.Timestamps) }
