package tracker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics of the polling loop. Nil Metrics is valid and records nothing
type Metrics struct {
	requests *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	interval prometheus.Gauge
}

// NewMetrics registers tracker metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "convtrack", Name: "status_requests_total", Help: "status requests by result",
		}, []string{"result"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "convtrack", Name: "outcomes_total", Help: "terminal outcomes by kind",
		}, []string{"kind"}),
		interval: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "convtrack", Name: "poll_interval_seconds", Help: "current poll interval",
		}),
	}
}

func (m *Metrics) request(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.requests.WithLabelValues(result).Inc()
}

func (m *Metrics) outcome(kind OutcomeKind) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) setInterval(d time.Duration) {
	if m == nil {
		return
	}
	m.interval.Set(d.Seconds())
}
