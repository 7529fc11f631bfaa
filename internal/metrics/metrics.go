// Package metrics exposes Prometheus collectors for the prediction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeModel    = "model"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Metrics records pipeline outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New registers the pipeline collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartgrid_predictions_total",
			Help: "Predictions served, by operation and outcome (model, fallback or error).",
		}, []string{"operation", "outcome"}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartgrid_prediction_failures_total",
			Help: "Pipeline failures, by operation, failing stage and error kind.",
		}, []string{"operation", "stage", "kind"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartgrid_prediction_duration_seconds",
			Help:    "End-to-end prediction latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
}

// ObservePrediction records one finished prediction.
func (m *Metrics) ObservePrediction(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveFailure records a pipeline failure at stage.
func (m *Metrics) ObserveFailure(operation, stage, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(operation, stage, kind).Inc()
}
