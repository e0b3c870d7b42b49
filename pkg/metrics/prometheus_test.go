package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordSwapsIngested("sqlite", "0xpool", 3)
	r.RecordSwapsIngested("sqlite", "0xpool", 0)
	r.RecordError("parse")
	r.RecordLastPrice("0xpool", 3.5)
	r.RecordLatency("poll", 0.2)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.swapsIngested.WithLabelValues("sqlite", "0xpool")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("parse")))
	assert.Equal(t, 3.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("0xpool")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
