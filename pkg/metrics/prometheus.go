package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	signalsFound  prometheus.Gauge
	notifications *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder whose collectors are registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalwatch_cycles_total",
				Help: "Evaluation cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalwatch_cycle_duration_seconds",
				Help:    "Wall time of one evaluation cycle",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		signalsFound: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalwatch_signals_active",
				Help: "Number of signals produced by the last successful cycle",
			},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalwatch_notifications_total",
				Help: "Notification decisions per signal id",
			},
			[]string{"signal", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalwatch_last_price",
				Help: "Last fetched price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle counts a finished cycle and observes its duration.
func (r *Recorder) RecordCycle(outcome string, d time.Duration) {
	r.cycles.WithLabelValues(outcome).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

func (r *Recorder) RecordSignalsFound(n int) {
	r.signalsFound.Set(float64(n))
}

// RecordNotification counts sent, suppressed, failed or unconfigured decisions.
func (r *Recorder) RecordNotification(signalID, outcome string) {
	r.notifications.WithLabelValues(signalID, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}
