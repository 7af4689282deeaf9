package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Endpoints tracks latency and failures of the dashboard read endpoints.
type Endpoints struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func NewEndpoints(reg prometheus.Registerer) *Endpoints {
	m := &Endpoints{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signalwatch",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of read and trigger endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalwatch",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Errors by endpoint",
			},
			[]string{"endpoint"},
		),
	}
	reg.MustRegister(m.latency, m.errors)
	return m
}

// Observe returns a func that records latency and, when *failed is true, an error.
//
//	done := m.Observe("signals")
//	defer done(&failed)
func (m *Endpoints) Observe(endpoint string) func(failed *bool) {
	start := time.Now()
	return func(failed *bool) {
		m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if failed != nil && *failed {
			m.errors.WithLabelValues(endpoint).Inc()
		}
	}
}
