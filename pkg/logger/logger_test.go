package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel)

	l.Info("backtest done",
		String("strategy", "quantile_P5_P95"),
		Int("points", 48),
		Float64("score", 71.5),
		Duration("took", 1500*time.Millisecond),
		Bool("cached", false),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "backtest done", got["message"])
	assert.Equal(t, "quantile_P5_P95", got["strategy"])
	assert.EqualValues(t, 48, got["points"])
	assert.EqualValues(t, 71.5, got["score"])
	assert.EqualValues(t, 1500, got["took"])
	assert.Equal(t, false, got["cached"])
}

func TestLoggerWithAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel).With(String("component", "poller"))

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Error("poll failed", Error(errors.New("boom")))
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "poller", got["component"])
	assert.Equal(t, "boom", got["error"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNopDoesNotPanic(t *testing.T) {
	Nop().Error("ignored", Error(errors.New("x")))
}
