// Package metrics provides the Prometheus registry and account workflow metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// OutcomesTotal counts workflow results by operation and outcome.
	OutcomesTotal *prometheus.CounterVec
}

// New creates a registry with the Go and process collectors and the account metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		OutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_outcomes_total",
				Help: "Total number of account workflow results by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
	reg.MustRegister(m.OutcomesTotal)

	return m
}

// RecordOutcome increments the outcome counter. It is safe to call on a nil *Metrics.
func (m *Metrics) RecordOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(operation, outcome).Inc()
}

// Handler returns the exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
