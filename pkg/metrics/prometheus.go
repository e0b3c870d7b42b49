package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	swapsIngested *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New registers the ingestion metrics on reg, or on the default registry
// when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		swapsIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lpquant",
				Subsystem: "indexer",
				Name:      "swaps_ingested_total",
				Help:      "Swaps written to a backend",
			},
			[]string{"backend", "pool_id"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lpquant",
				Subsystem: "indexer",
				Name:      "errors_total",
				Help:      "Ingestion errors by kind",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lpquant",
				Subsystem: "indexer",
				Name:      "last_price",
				Help:      "Last swap price seen for a pool",
			},
			[]string{"pool_id"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lpquant",
				Subsystem: "indexer",
				Name:      "operation_duration_seconds",
				Help:      "Duration of ingestion operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSwapsIngested adds n swaps written to backend for a pool.
func (r *Recorder) RecordSwapsIngested(backend, poolID string, n int) {
	if n > 0 {
		r.swapsIngested.WithLabelValues(backend, poolID).Add(float64(n))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a pool.
func (r *Recorder) RecordLastPrice(poolID string, price float64) {
	r.lastPrice.WithLabelValues(poolID).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
