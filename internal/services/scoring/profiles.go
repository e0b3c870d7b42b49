package scoring

import (
	"errors"
	"sort"

	"LPQuant/internal/domain/models"
)

const (
	ProfileConservative = "conservative"
	ProfileBalanced     = "balanced"
	ProfileAggressive   = "aggressive"
)

var ErrUnknownProfile = errors.New("unknown scoring profile")

type Metric string

const (
	MetricInRange           Metric = "in_range_pct"
	MetricLpVsHodl          Metric = "lp_vs_hodl_pct"
	MetricMaxIL             Metric = "max_il_pct"
	MetricMaxDrawdown       Metric = "max_drawdown_pct"
	MetricCapitalEfficiency Metric = "capital_efficiency"
	MetricBoundaryTouches   Metric = "boundary_touches"
	MetricWidth             Metric = "width_pct"
)

// MetricWeight assigns a weight to one back-test metric. Inverted metrics
// reward lower values.
type MetricWeight struct {
	Metric   Metric
	Weight   float64
	Inverted bool
}

// profileTable is read-only after init; ProfileWeights hands out copies.
// capital_efficiency is sqrt(pb/pa) and grows with width, so profiles that
// favour concentration invert it.
var profileTable = map[string][]MetricWeight{
	ProfileConservative: {
		{Metric: MetricInRange, Weight: 0.40},
		{Metric: MetricMaxIL, Weight: 0.30, Inverted: true},
		{Metric: MetricMaxDrawdown, Weight: 0.20, Inverted: true},
		{Metric: MetricLpVsHodl, Weight: 0.10},
	},
	ProfileBalanced: {
		{Metric: MetricLpVsHodl, Weight: 0.30},
		{Metric: MetricInRange, Weight: 0.30},
		{Metric: MetricMaxIL, Weight: 0.20, Inverted: true},
		{Metric: MetricCapitalEfficiency, Weight: 0.20, Inverted: true},
	},
	ProfileAggressive: {
		{Metric: MetricWidth, Weight: 0.50, Inverted: true},
		{Metric: MetricLpVsHodl, Weight: 0.40},
		{Metric: MetricInRange, Weight: 0.10},
	},
}

// ProfileWeights returns a copy of the weights for the named profile.
func ProfileWeights(name string) ([]MetricWeight, bool) {
	w, ok := profileTable[name]
	if !ok {
		return nil, false
	}
	return append([]MetricWeight(nil), w...), true
}

// Profiles lists the known profile names in sorted order.
func Profiles() []string {
	out := make([]string, 0, len(profileTable))
	for name := range profileTable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m Metric) value(c models.EvaluatedCandidate) float64 {
	b := c.Metrics
	switch m {
	case MetricInRange:
		return b.InRangePct
	case MetricLpVsHodl:
		return b.LpVsHodlPct
	case MetricMaxIL:
		return b.MaxILPct
	case MetricMaxDrawdown:
		return b.MaxDrawdownPct
	case MetricCapitalEfficiency:
		return b.CapitalEfficiency
	case MetricBoundaryTouches:
		return float64(b.BoundaryTouches)
	case MetricWidth:
		return c.WidthPct
	default:
		return 0
	}
}
