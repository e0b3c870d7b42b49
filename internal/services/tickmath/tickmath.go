// Package tickmath converts between prices and CLMM ticks (1.0001 lattice)
// and snaps ticks to a pool's tick spacing.
package tickmath

import (
	"errors"
	"math"

	"LPQuant/internal/domain/models"
	"LPQuant/pkg/util"
)

const tickBase = 1.0001

var (
	ErrNonPositivePrice   = errors.New("price must be positive")
	ErrNonPositiveSpacing = errors.New("tick spacing must be positive")
)

var logBase = math.Log(tickBase)

// PriceToTick returns floor(ln(price)/ln(1.0001)).
func PriceToTick(price float64) (int, error) {
	if price <= 0 || math.IsNaN(price) {
		return 0, ErrNonPositivePrice
	}
	return int(math.Floor(math.Log(price) / logBase)), nil
}

// TickToPrice returns 1.0001^tick.
func TickToPrice(tick int) float64 {
	return math.Pow(tickBase, float64(tick))
}

// AlignDown returns the largest multiple of spacing that is <= tick.
func AlignDown(tick, spacing int) (int, error) {
	if spacing <= 0 {
		return 0, ErrNonPositiveSpacing
	}
	return floorDiv(tick, spacing) * spacing, nil
}

// AlignUp returns the smallest multiple of spacing that is >= tick.
func AlignUp(tick, spacing int) (int, error) {
	if spacing <= 0 {
		return 0, ErrNonPositiveSpacing
	}
	if mod(tick, spacing) == 0 {
		return tick, nil
	}
	return (floorDiv(tick, spacing) + 1) * spacing, nil
}

// Align snaps a candidate's requested bounds outward onto the spacing lattice.
// A range that collapses after snapping is widened by one spacing unit.
func Align(c models.RangeCandidate, spacing int, currentPrice float64) (models.AlignedCandidate, error) {
	rawLower, err := PriceToTick(c.Pa)
	if err != nil {
		return models.AlignedCandidate{}, err
	}
	rawUpper, err := PriceToTick(c.Pb)
	if err != nil {
		return models.AlignedCandidate{}, err
	}
	lower, err := AlignDown(rawLower, spacing)
	if err != nil {
		return models.AlignedCandidate{}, err
	}
	upper, err := AlignUp(rawUpper, spacing)
	if err != nil {
		return models.AlignedCandidate{}, err
	}
	if currentPrice <= 0 {
		return models.AlignedCandidate{}, ErrNonPositivePrice
	}

	apa := TickToPrice(lower)
	apb := TickToPrice(upper)
	if apa >= apb {
		upper += spacing
		apb = TickToPrice(upper)
	}

	return models.AlignedCandidate{
		RangeCandidate: c,
		TickLower:      lower,
		TickUpper:      upper,
		AlignedPa:      apa,
		AlignedPb:      apb,
		WidthPct:       util.Round((apb-apa)/currentPrice*100, 4),
	}, nil
}

// floorDiv rounds toward negative infinity, unlike Go's truncating division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
