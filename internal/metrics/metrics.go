// Package metrics exposes Prometheus instruments for tracker mutations and store calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mutation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the instruments. A nil *Metrics records nothing, so callers
// never need to check whether metrics are enabled.
type Metrics struct {
	mutations *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
	storeCall *prometheus.HistogramVec
	gatherer  prometheus.Gatherer
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamsplit",
			Name:      "mutations_total",
			Help:      "Tracker mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamsplit",
			Name:      "rollbacks_total",
			Help:      "Optimistic updates reverted after a failed store call.",
		}, []string{"op"}),
		storeCall: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamsplit",
			Name:      "store_call_seconds",
			Help:      "Latency of store calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.mutations, m.rollbacks, m.storeCall)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors alongside the tracker instruments.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, New(reg)
}

// Mutation counts one finished mutation.
func (m *Metrics) Mutation(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

// Rollback counts one reverted optimistic update.
func (m *Metrics) Rollback(op string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(op).Inc()
}

// ObserveStoreCall records how long a store call took.
func (m *Metrics) ObserveStoreCall(op string, started time.Time) {
	if m == nil {
		return
	}
	m.storeCall.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
