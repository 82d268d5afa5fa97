// Package metrics holds the prometheus collectors of the injection pipeline.
// Each Metrics value owns its own prometheus registry so tests and multiple
// apps in one process do not collide.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/sparrow/internal/core/events/bus"
)

const namespace = "sparrow"

type Metrics struct {
	registry *prometheus.Registry

	ComponentsInjected *prometheus.CounterVec
	Diagnostics        *prometheus.CounterVec
	NodesProcessed     prometheus.Counter
	Exports            *prometheus.CounterVec
	RegistryTypes      prometheus.Gauge
	TickDuration       prometheus.Histogram
	BusEvents          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ComponentsInjected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inject",
				Name:      "components_total",
				Help:      "Components attached to scene nodes, by metadata channel",
			},
			[]string{"channel"},
		),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inject",
				Name:      "diagnostics_total",
				Help:      "Metadata diagnostics, by kind",
			},
			[]string{"kind"},
		),
		NodesProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inject",
				Name:      "nodes_total",
				Help:      "Scene nodes whose metadata was processed",
			},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schema",
				Name:      "exports_total",
				Help:      "Schema exports, by status",
			},
			[]string{"status"},
		),
		RegistryTypes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "types",
				Help:      "Registered types",
			},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "inject",
				Name:      "tick_duration_seconds",
				Help:      "Duration of one injection pass",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		BusEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "events_total",
				Help:      "Events published on the internal bus, by type and outcome",
			},
			[]string{"type", "status"},
		),
	}

	m.registry.MustRegister(
		m.ComponentsInjected,
		m.Diagnostics,
		m.NodesProcessed,
		m.Exports,
		m.RegistryTypes,
		m.TickDuration,
		m.BusEvents,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WatchResolver exposes the entity reference counters of a resolver.
func (m *Metrics) WatchResolver(resolved, unresolved func() uint64) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolved_total",
			Help:      "Entity references resolved inside their instance",
		}, func() float64 { return float64(resolved()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "unresolved_total",
			Help:      "Entity references replaced by the placeholder",
		}, func() float64 { return float64(unresolved()) }),
	)
}

// ObserveTick records the duration of one injection pass.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}

// ObserveExport counts an export attempt.
func (m *Metrics) ObserveExport(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Exports.WithLabelValues(status).Inc()
}

var _ bus.Observer = (*Metrics)(nil)

func (m *Metrics) OnPublish(string, bus.Event) {}

func (m *Metrics) OnDelivered(eventType string, _ int, err error, _ time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BusEvents.WithLabelValues(eventType, status).Inc()
}
