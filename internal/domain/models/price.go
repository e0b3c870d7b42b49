package models

import "fmt"

// PricePoint is one OHLC bar of the price history fed to the engine.
type PricePoint struct {
	OpenTime int64 // epoch ms
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// PriceSeries is ordered oldest first.
type PriceSeries []PricePoint

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.High
	}
	return out
}

func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Low
	}
	return out
}

func (s PriceSeries) Timestamps() []int64 {
	out := make([]int64, len(s))
	for i, p := range s {
		out[i] = p.OpenTime
	}
	return out
}

// Last returns the most recent point, or false for an empty series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Kline is the wire row [open_time, open, high, low, close, volume?].
type Kline []float64

// ParseKlines converts wire rows into a PriceSeries.
func ParseKlines(rows []Kline) (PriceSeries, error) {
	out := make(PriceSeries, 0, len(rows))
	for i, k := range rows {
		if len(k) < 5 {
			return nil, fmt.Errorf("kline %d: each kline must have at least 5 elements, got %d", i, len(k))
		}
		p := PricePoint{
			OpenTime: int64(k[0]),
			Open:     k[1],
			High:     k[2],
			Low:      k[3],
			Close:    k[4],
		}
		if len(k) > 5 {
			p.Volume = k[5]
		}
		out = append(out, p)
	}
	return out, nil
}

// SeriesFromBars converts stored OHLCV bars into engine input.
func SeriesFromBars(bars []Bar) PriceSeries {
	out := make(PriceSeries, len(bars))
	for i, b := range bars {
		out[i] = PricePoint{
			OpenTime: b.OpenTime,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   b.Volume,
		}
	}
	return out
}
