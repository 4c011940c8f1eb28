package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSink counts events and exceptions in Prometheus.
//
// Metrics:
//   - pawswipe_events_total{event} - product events by name
//   - pawswipe_exceptions_total - reported exceptions
type MetricsSink struct {
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	exceptions prometheus.Counter
}

// NewMetricsSink registers its collectors on a private registry so several
// instances (tests, multiple programs) never collide.
func NewMetricsSink() *MetricsSink {
	m := &MetricsSink{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pawswipe_events_total",
				Help: "Total number of product events by name",
			},
			[]string{"event"},
		),
		exceptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawswipe_exceptions_total",
			Help: "Total number of reported exceptions",
		}),
	}
	m.registry.MustRegister(m.events, m.exceptions)
	return m
}

func (m *MetricsSink) Event(name string, _ Props) {
	m.events.WithLabelValues(name).Inc()
}

func (m *MetricsSink) Exception(err error, _ Props) {
	if err == nil {
		return
	}
	m.exceptions.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsSink) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
