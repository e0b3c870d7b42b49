// Package candidates proposes raw (pa, pb) price ranges from price history
// or from a volatility forecast. Ranges are not yet tick aligned.
package candidates

import (
	"fmt"
	"math"

	"LPQuant/internal/domain/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	StrategyQuantile = "quantile"
	StrategyVolBand  = "volband"
	StrategySwing    = "swing"

	DefaultVolBandWindow = 24
	minSwingPoints       = 10
)

var (
	quantilePairs = [][2]float64{{5, 95}, {10, 90}, {25, 75}}
	volBandKs     = []float64{1.0, 1.5, 2.0}
	extremeWidths = []float64{2.0, 5.0}
)

// Quantile builds ranges from close-price percentile pairs.
func Quantile(closes []float64) []models.RangeCandidate {
	if len(closes) == 0 {
		return nil
	}
	sorted := sortedCopy(closes)
	out := make([]models.RangeCandidate, 0, len(quantilePairs))
	for _, q := range quantilePairs {
		pa := percentile(sorted, q[0])
		pb := percentile(sorted, q[1])
		if pa >= pb {
			continue
		}
		out = append(out, models.RangeCandidate{
			Pa:        pa,
			Pb:        pb,
			Label:     fmt.Sprintf("quantile_P%.0f_P%.0f", q[0], q[1]),
			RangeType: models.RangePattern,
		})
	}
	return out
}

// VolBand builds SMA ± k·STD bands over the trailing window.
func VolBand(closes []float64, window int) []models.RangeCandidate {
	if len(closes) == 0 {
		return nil
	}
	if window <= 0 {
		window = DefaultVolBandWindow
	}
	tail := closes
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	sma, std := stat.PopMeanStdDev(tail, nil)
	if std == 0 {
		std = sma * 0.001
	}

	out := make([]models.RangeCandidate, 0, len(volBandKs))
	for _, k := range volBandKs {
		out = append(out, models.RangeCandidate{
			Pa:        math.Max(sma-k*std, 1e-8),
			Pb:        sma + k*std,
			Label:     fmt.Sprintf("volband_%.1fx", k),
			RangeType: models.RangePattern,
		})
	}
	return out
}

// Swing builds ranges from local extrema found with a rolling window of max(5, n/20).
func Swing(closes []float64) []models.RangeCandidate {
	n := len(closes)
	if n < minSwingPoints {
		return nil
	}
	w := n / 20
	if w < 5 {
		w = 5
	}

	var mins, maxs []float64
	for i := w; i < n-w; i++ {
		seg := closes[i-w : i+w+1]
		if closes[i] == floats.Min(seg) {
			mins = append(mins, closes[i])
		}
		if closes[i] == floats.Max(seg) {
			maxs = append(maxs, closes[i])
		}
	}
	if len(mins) == 0 || len(maxs) == 0 {
		return nil
	}

	var out []models.RangeCandidate

	pa := floats.Min(mins)
	if len(mins) >= 3 {
		pa = median(mins[len(mins)-3:])
	}
	pb := floats.Max(maxs)
	if len(maxs) >= 3 {
		pb = median(maxs[len(maxs)-3:])
	}
	if pa < pb {
		out = append(out, models.RangeCandidate{Pa: pa, Pb: pb, Label: "swing_recent", RangeType: models.RangePattern})
	}

	pa, pb = floats.Min(mins), floats.Max(maxs)
	if pa < pb {
		out = append(out, models.RangeCandidate{Pa: pa, Pb: pb, Label: "swing_full", RangeType: models.RangePattern})
	}
	return out
}

// Extreme builds fixed 2% and 5% total-width bands centred on the current price.
func Extreme(currentPrice float64) []models.RangeCandidate {
	out := make([]models.RangeCandidate, 0, len(extremeWidths))
	for _, width := range extremeWidths {
		half := width / 100 / 2
		out = append(out, models.RangeCandidate{
			Pa:        currentPrice * (1 - half),
			Pb:        currentPrice * (1 + half),
			Label:     ExtremeLabel(width),
			RangeType: models.RangeExtreme,
		})
	}
	return out
}

// ExtremeLabel returns the label of the extreme band with the given total width.
func ExtremeLabel(widthPct float64) string {
	return fmt.Sprintf("extreme_%.1fpct", widthPct)
}

// Pattern runs the named generators over closes. Unknown names are skipped.
func Pattern(closes []float64, strategies []string) []models.RangeCandidate {
	var out []models.RangeCandidate
	for _, name := range strategies {
		switch name {
		case StrategyQuantile:
			out = append(out, Quantile(closes)...)
		case StrategyVolBand:
			out = append(out, VolBand(closes, DefaultVolBandWindow)...)
		case StrategySwing:
			out = append(out, Swing(closes)...)
		}
	}
	return out
}

// Valid reports whether a candidate can be aligned.
func Valid(c models.RangeCandidate) bool {
	return c.Pa > 0 && c.Pb > 0 && c.Pa < c.Pb &&
		!math.IsNaN(c.Pa) && !math.IsNaN(c.Pb) && !math.IsInf(c.Pb, 0)
}

// Filter drops candidates that fail Valid.
func Filter(cands []models.RangeCandidate) []models.RangeCandidate {
	out := make([]models.RangeCandidate, 0, len(cands))
	for _, c := range cands {
		if Valid(c) {
			out = append(out, c)
		}
	}
	return out
}
