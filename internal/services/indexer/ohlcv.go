package indexer

import (
	"math"
	"sort"
	"time"

	"LPQuant/internal/domain/models"
	"LPQuant/internal/domain/repository"
	"LPQuant/pkg/util"
)

// barFolder accumulates swaps into bars one bucket at a time. When
// forwardFill is set, empty buckets between trades are emitted as flat bars
// at the previous close.
type barFolder struct {
	poolID      string
	interval    string
	stepMs      int64
	forwardFill bool

	cur  *models.Bar
	bars []models.Bar
}

func (f *barFolder) step(s *models.Swap) {
	start := util.BucketStart(s.TimestampMs, time.Duration(f.stepMs)*time.Millisecond)
	if f.cur != nil && f.cur.OpenTime == start {
		f.cur.High = math.Max(f.cur.High, s.Price)
		f.cur.Low = math.Min(f.cur.Low, s.Price)
		f.cur.Close = s.Price
		f.cur.Volume += s.VolumeB
		f.cur.TradeCount++
		return
	}

	f.flush()
	if f.forwardFill && len(f.bars) > 0 {
		prev := f.bars[len(f.bars)-1]
		for t := prev.OpenTime + f.stepMs; t < start; t += f.stepMs {
			f.bars = append(f.bars, models.Bar{
				PoolID:   f.poolID,
				Interval: f.interval,
				OpenTime: t,
				Open:     prev.Close,
				High:     prev.Close,
				Low:      prev.Close,
				Close:    prev.Close,
			})
		}
	}
	f.cur = &models.Bar{
		PoolID:     f.poolID,
		Interval:   f.interval,
		OpenTime:   start,
		Open:       s.Price,
		High:       s.Price,
		Low:        s.Price,
		Close:      s.Price,
		Volume:     s.VolumeB,
		TradeCount: 1,
	}
}

func (f *barFolder) flush() {
	if f.cur != nil {
		f.bars = append(f.bars, *f.cur)
		f.cur = nil
	}
}

// AggregateSwaps buckets one pool's swaps into OHLCV bars ordered by open
// time. Volume is summed in coin B units.
func AggregateSwaps(swaps []*models.Swap, iv repository.Interval, forwardFill bool) []models.Bar {
	if len(swaps) == 0 || !repository.IsValidInterval(iv) {
		return nil
	}
	ordered := sortSwaps(swaps)

	f := &barFolder{
		poolID:      ordered[0].PoolID,
		interval:    string(iv),
		stepMs:      iv.Millis(),
		forwardFill: forwardFill,
	}
	for _, s := range ordered {
		f.step(s)
	}
	f.flush()
	return f.bars
}

// BucketSpan returns the [start, end) window covering every bucket of iv
// touched by the swaps.
func BucketSpan(swaps []*models.Swap, iv repository.Interval) (time.Time, time.Time) {
	if len(swaps) == 0 {
		return time.Time{}, time.Time{}
	}
	lo, hi := swaps[0].TimestampMs, swaps[0].TimestampMs
	for _, s := range swaps[1:] {
		if s.TimestampMs < lo {
			lo = s.TimestampMs
		}
		if s.TimestampMs > hi {
			hi = s.TimestampMs
		}
	}
	d := iv.Duration()
	start := util.BucketStart(lo, d)
	end := util.BucketStart(hi, d) + iv.Millis()
	return time.UnixMilli(start).UTC(), time.UnixMilli(end).UTC()
}

// GroupByPool splits swaps by pool id, preserving order within each pool.
func GroupByPool(swaps []*models.Swap) map[string][]*models.Swap {
	out := make(map[string][]*models.Swap)
	for _, s := range swaps {
		out[s.PoolID] = append(out[s.PoolID], s)
	}
	return out
}

func sortSwaps(swaps []*models.Swap) []*models.Swap {
	out := append([]*models.Swap(nil), swaps...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimestampMs != out[j].TimestampMs {
			return out[i].TimestampMs < out[j].TimestampMs
		}
		return out[i].EventSeq < out[j].EventSeq
	})
	return out
}
