package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportBarsCSV(t *testing.T) {
	store := newMemStore()
	seedHourlyBars(t, store, []float64{1, 2})

	var buf bytes.Buffer
	n, err := ExportBarsCSV(context.Background(), store, "0xAAA", "1h", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "open_time,open_time_utc,open,high,low,close,volume,trades", lines[0])
	assert.Equal(t, "1704067200000,2024-01-01 00:00:00,1.00000000,1.00200000,0.99800000,1.00000000,10.0000,1", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "1704070800000,2024-01-01 01:00:00,2.00000000"))
}

func TestExportBarsCSVEmptyAndInvalid(t *testing.T) {
	store := newMemStore()

	var buf bytes.Buffer
	n, err := ExportBarsCSV(context.Background(), store, poolA, "1d", &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "header only")

	_, err = ExportBarsCSV(context.Background(), store, poolA, "2h", &buf)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
