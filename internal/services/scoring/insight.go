package scoring

import (
	"fmt"
	"math"
	"strings"

	"LPQuant/internal/domain/models"
	"LPQuant/pkg/util"
)

const (
	ilWarningPct     = 10.0
	underperformPct  = -5.0
	narrowWidthPct   = 5.0
	moderateWidthPct = 15.0
)

func widthClass(w float64) string {
	switch {
	case w < narrowWidthPct:
		return "Narrow"
	case w < moderateWidthPct:
		return "Moderate"
	default:
		return "Wide"
	}
}

// Insight renders a one-line, human-readable summary of a candidate.
func Insight(c models.EvaluatedCandidate) string {
	m := c.Metrics
	parts := make([]string, 0, 3)

	switch c.RangeType {
	case models.RangeBalanced:
		parts = append(parts, fmt.Sprintf("%.1fσ range (%.1f%% width) with %.0f%% estimated stay probability",
			c.KSigma, c.WidthPct, c.EstimatedProb*100))
	case models.RangeNarrow:
		parts = append(parts, fmt.Sprintf("Tight %.1fσ range (%.1f%% width) — %.0f%% stay probability, high efficiency",
			c.KSigma, c.WidthPct, c.EstimatedProb*100))
	default:
		parts = append(parts, fmt.Sprintf("%s range (%.1f%% width) with %.0f%% historical in-range time",
			widthClass(c.WidthPct), c.WidthPct, m.InRangePct))
	}

	switch {
	case m.LpVsHodlPct > 0:
		parts = append(parts, fmt.Sprintf("LP outperforms HODL by %.1f%%", m.LpVsHodlPct))
	case m.LpVsHodlPct < underperformPct:
		parts = append(parts, fmt.Sprintf("LP underperforms HODL by %.1f%%", math.Abs(m.LpVsHodlPct)))
	}

	if m.MaxILPct > ilWarningPct {
		parts = append(parts, fmt.Sprintf("max IL reached %.1f%%", m.MaxILPct))
	}

	return strings.Join(parts, ". ") + "."
}

// InsightDataFor returns the structured form of Insight for client rendering.
func InsightDataFor(c models.EvaluatedCandidate) models.InsightData {
	m := c.Metrics
	return models.InsightData{
		RangeType:          string(c.RangeType),
		KSigma:             util.Round(c.KSigma, 2),
		EstimatedProb:      util.Round(c.EstimatedProb, 4),
		WidthPct:           util.Round(c.WidthPct, 1),
		BacktestInRangePct: util.Round(m.InRangePct, 1),
		LpVsHodlPct:        util.Round(m.LpVsHodlPct, 1),
		LpOutperforms:      m.LpVsHodlPct > 0,
		MaxILPct:           util.Round(m.MaxILPct, 1),
		ILWarning:          m.MaxILPct > ilWarningPct,
		CapitalEfficiency:  util.Round(m.CapitalEfficiency, 1),
	}
}
