package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/pkg/util"
)

var barsCSVHeader = []string{"open_time", "open_time_utc", "open", "high", "low", "close", "volume", "trades"}

// ExportBarsCSV writes every stored bar of a pool and interval to w, oldest
// first, and returns the number of rows written.
func ExportBarsCSV(ctx context.Context, store domrepo.SwapStore, poolID string, iv domrepo.Interval, w io.Writer) (int, error) {
	if !domrepo.IsValidInterval(iv) {
		return 0, fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, iv)
	}
	bars, err := store.GetBars(ctx, util.NormalizeHexID(poolID), iv, time.Time{}, time.Time{}, 0)
	if err != nil {
		return 0, fmt.Errorf("export bars: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(barsCSVHeader); err != nil {
		return 0, err
	}
	for _, b := range bars {
		row := []string{
			strconv.FormatInt(b.OpenTime, 10),
			time.UnixMilli(b.OpenTime).UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(b.Open, 'f', 8, 64),
			strconv.FormatFloat(b.High, 'f', 8, 64),
			strconv.FormatFloat(b.Low, 'f', 8, 64),
			strconv.FormatFloat(b.Close, 'f', 8, 64),
			strconv.FormatFloat(b.Volume, 'f', 4, 64),
			strconv.Itoa(b.TradeCount),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(bars), nil
}
