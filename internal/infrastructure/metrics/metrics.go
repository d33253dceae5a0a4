package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Loans counts engine outcomes. It satisfies the loan usecase's Recorder.
type Loans struct {
	reg         *prometheus.Registry
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// New registers the loan collectors plus the Go and process collectors on a
// fresh registry.
func New() *Loans {
	reg := prometheus.NewRegistry()
	m := &Loans{
		reg: reg,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "loan_engine",
				Name:      "transitions_total",
				Help:      "Committed loan lifecycle transitions by event.",
			},
			[]string{"event"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "loan_engine",
				Name:      "rejections_total",
				Help:      "Rejected loan operations by operation and error kind.",
			},
			[]string{"op", "kind"},
		),
	}
	reg.MustRegister(
		m.transitions,
		m.rejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Loans) Transition(event string) {
	m.transitions.WithLabelValues(event).Inc()
}

func (m *Loans) Rejection(op, kind string) {
	m.rejections.WithLabelValues(op, kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Loans) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
