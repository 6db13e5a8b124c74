package capture

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts capture outcomes. Labels are the template tag and output
// format.
type Metrics struct {
	attempts  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	successes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the capture collectors on reg. A nil reg leaves them
// unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"template", "format"}
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potw",
			Subsystem: "capture",
			Name:      "conversion_attempts_total",
			Help:      "Conversion attempts, including retries.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potw",
			Subsystem: "capture",
			Name:      "failures_total",
			Help:      "Captures that exhausted every attempt.",
		}, labels),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potw",
			Subsystem: "capture",
			Name:      "successes_total",
			Help:      "Captures that produced an artifact.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "potw",
			Subsystem: "capture",
			Name:      "duration_seconds",
			Help:      "Wall time of a capture from render to artifact.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, labels),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.failures, m.successes, m.duration)
	}
	return m
}

func (m *Metrics) attempt(tpl, format string) {
	if m != nil {
		m.attempts.WithLabelValues(tpl, format).Inc()
	}
}

func (m *Metrics) done(tpl, format string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	if ok {
		m.successes.WithLabelValues(tpl, format).Inc()
	} else {
		m.failures.WithLabelValues(tpl, format).Inc()
	}
	m.duration.WithLabelValues(tpl, format).Observe(seconds)
}
