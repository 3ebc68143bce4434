// Package observability exposes Prometheus metrics for validation runs and
// upstream fetches.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fieldcheck/internal/contract"
)

// Metrics holds the collectors. A nil *Metrics records nothing, so callers
// can pass nil when metrics are disabled.
type Metrics struct {
	Validations   *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcheck_validations_total",
			Help: "Total number of validated model instances by model type and outcome",
		}, []string{"model_type", "outcome"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldcheck_fetch_errors_total",
			Help: "Total number of failed upstream fetches by operation",
		}, []string{"operation"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldcheck_fetch_duration_seconds",
			Help:    "Duration of upstream fetches by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordValidation counts one report under its outcome kind.
func (m *Metrics) RecordValidation(r contract.Report) {
	if m == nil {
		return
	}
	outcome := contract.OutcomePass
	if r.Failure != nil {
		outcome = r.Failure.Kind
	}
	m.Validations.WithLabelValues(string(r.Model), string(outcome)).Inc()
}

// RecordFetchError counts one failed fetch.
func (m *Metrics) RecordFetchError(operation string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(operation).Inc()
}

// ObserveFetch records how long a fetch took.
func (m *Metrics) ObserveFetch(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(operation).Observe(d.Seconds())
}
