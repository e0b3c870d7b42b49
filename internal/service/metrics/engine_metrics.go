package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine records recommendation activity. A nil *Engine is a no-op.
type Engine struct {
	latency    *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	candidates *prometheus.CounterVec
	backtests  *prometheus.CounterVec
}

// NewEngine registers the engine metrics on reg, or on the default registry
// when reg is nil.
func NewEngine(reg prometheus.Registerer) *Engine {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Engine{
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lpquant",
				Subsystem: "engine",
				Name:      "recommend_seconds",
				Help:      "Latency of a full recommendation by strategy",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"strategy"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lpquant",
				Subsystem: "engine",
				Name:      "recommend_errors_total",
				Help:      "Failed recommendations by strategy and reason",
			},
			[]string{"strategy", "reason"},
		),
		candidates: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lpquant",
				Subsystem: "engine",
				Name:      "candidates_generated_total",
				Help:      "Candidate ranges surviving alignment, by range type",
			},
			[]string{"range_type"},
		),
		backtests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lpquant",
				Subsystem: "engine",
				Name:      "backtests_total",
				Help:      "Back-tests run by strategy",
			},
			[]string{"strategy"},
		),
	}
}

func (m *Engine) ObserveRecommend(strategy string, d time.Duration) {
	if m != nil {
		m.latency.WithLabelValues(strategy).Observe(d.Seconds())
	}
}

func (m *Engine) RecommendError(strategy, reason string) {
	if m != nil {
		m.errors.WithLabelValues(strategy, reason).Inc()
	}
}

func (m *Engine) CandidatesGenerated(rangeType string, n int) {
	if m != nil && n > 0 {
		m.candidates.WithLabelValues(rangeType).Add(float64(n))
	}
}

func (m *Engine) BacktestsRun(strategy string, n int) {
	if m != nil && n > 0 {
		m.backtests.WithLabelValues(strategy).Add(float64(n))
	}
}
