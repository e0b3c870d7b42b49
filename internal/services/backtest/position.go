package backtest

import "math"

const epsilon = 1e-18

// position is a fixed-range CL position opened with a given liquidity.
type position struct {
	L      float64
	sqrtPa float64
	sqrtPb float64
	pa     float64
	pb     float64
}

// liquidity derives L for capital deployed at p0 inside [pa, pb].
func liquidity(capital, p0, pa, pb float64) float64 {
	sp0 := math.Sqrt(p0)
	den := (sp0 - math.Sqrt(pa)) + p0*(1/sp0-1/math.Sqrt(pb))
	if den <= 0 {
		den = epsilon
	}
	return capital / den
}

func newPosition(capital, p0, pa, pb float64) position {
	return position{
		L:      liquidity(capital, p0, pa, pb),
		sqrtPa: math.Sqrt(pa),
		sqrtPb: math.Sqrt(pb),
		pa:     pa,
		pb:     pb,
	}
}

// value is the quote-denominated worth of the position at price.
func (p position) value(price float64) float64 {
	switch {
	case price <= p.pa:
		x := p.L * (1/p.sqrtPa - 1/p.sqrtPb)
		return x * price
	case price >= p.pb:
		return p.L * (p.sqrtPb - p.sqrtPa)
	default:
		sp := math.Sqrt(price)
		x := p.L * (1/sp - 1/p.sqrtPb)
		y := p.L * (sp - p.sqrtPa)
		return x*price + y
	}
}
