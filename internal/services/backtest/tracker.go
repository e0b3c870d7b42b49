package backtest

import "LPQuant/internal/domain/models"

const (
	exitColor  = "#ef4444"
	enterColor = "#22c55e"
	msPerHour  = 3_600_000.0
)

// rangeTracker folds in/out-of-range state over an ordered series.
type rangeTracker struct {
	pa, pb float64

	seen        bool
	inRange     bool
	inCount     int
	touches     int
	exits       int
	stretchFrom int64
	exitSpans   []float64
	markers     []models.ChartMarker
	lastTs      int64
}

func newRangeTracker(pa, pb float64) *rangeTracker {
	return &rangeTracker{pa: pa, pb: pb}
}

func (t *rangeTracker) step(ts int64, price float64) {
	in := t.pa <= price && price <= t.pb
	if in {
		t.inCount++
	}

	switch {
	case !t.seen:
		if in {
			t.stretchFrom = ts
		}
	case in != t.inRange:
		t.touches++
		if in {
			t.stretchFrom = ts
			t.markers = append(t.markers, models.ChartMarker{
				Time:     ts,
				Position: models.MarkerInBar,
				Color:    enterColor,
				Shape:    models.ShapeCircle,
				Text:     "enter",
			})
		} else {
			t.exits++
			t.exitSpans = append(t.exitSpans, float64(ts-t.stretchFrom)/msPerHour)
			pos := models.MarkerBelowBar
			if price > t.pb {
				pos = models.MarkerAboveBar
			}
			t.markers = append(t.markers, models.ChartMarker{
				Time:     ts,
				Position: pos,
				Color:    exitColor,
				Shape:    models.ShapeArrowDown,
				Text:     "exit",
			})
		}
	}

	t.seen = true
	t.inRange = in
	t.lastTs = ts
}

// meanTimeToExit averages completed in-range stretches. Without any exit it
// reports the still-open final stretch, or 0 when price never entered.
func (t *rangeTracker) meanTimeToExit() float64 {
	if len(t.exitSpans) == 0 {
		if t.seen && t.inRange {
			return float64(t.lastTs-t.stretchFrom) / msPerHour
		}
		return 0
	}
	sum := 0.0
	for _, h := range t.exitSpans {
		sum += h
	}
	return sum / float64(len(t.exitSpans))
}
