// Package metrics exposes the runtime's prometheus collectors on a private
// registry, so several cores can live in one process (as they do in tests).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chain results.
const (
	ChainCompleted = "completed"
	ChainFailed    = "failed"
	ChainStepLimit = "step_limit"
)

// Registry holds every collector.
type Registry struct {
	RequestsTotal      *prometheus.CounterVec
	EventsTotal        *prometheus.CounterVec
	ChainsTotal        *prometheus.CounterVec
	NodeExecutions     *prometheus.CounterVec
	EngineInvokeTime   *prometheus.HistogramVec
	LiveNodes          prometheus.Gauge
	InFlightDispatches prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a registry with all collectors registered.
func New() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_requests_total",
			Help: "Core requests handled, by request kind and result",
		},
		[]string{"kind", "result"},
	)
	r.EventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_events_total",
			Help: "Engine events dispatched, by package and event name",
		},
		[]string{"package", "event"},
	)
	r.ChainsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_chains_total",
			Help: "Exec chains run to an end, by result",
		},
		[]string{"result"},
	)
	r.NodeExecutions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_node_executions_total",
			Help: "Node behaviours executed, by package and schema",
		},
		[]string{"package", "schema"},
	)
	r.EngineInvokeTime = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patchbay_engine_invoke_duration_seconds",
			Help:    "Time spent waiting on engine invoke replies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"package", "result"},
	)
	r.LiveNodes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_live_nodes",
			Help: "Nodes currently held across all graphs",
		},
	)
	r.InFlightDispatches = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_inflight_dispatches",
			Help: "Event dispatches whose chains are still running",
		},
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// Handler serves the registry in the prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) RecordRequest(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.RequestsTotal.WithLabelValues(kind, result).Inc()
}

func (r *Registry) RecordEvent(pkg, name string) {
	r.EventsTotal.WithLabelValues(pkg, name).Inc()
}

func (r *Registry) RecordChain(result string) {
	r.ChainsTotal.WithLabelValues(result).Inc()
}

func (r *Registry) RecordExecution(pkg, schema string) {
	r.NodeExecutions.WithLabelValues(pkg, schema).Inc()
}

func (r *Registry) RecordInvoke(pkg string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.EngineInvokeTime.WithLabelValues(pkg, result).Observe(d.Seconds())
}
