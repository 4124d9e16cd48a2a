package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Metrics records render pool activity. A nil *Metrics records nothing.
type Metrics struct {
	jobs     *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emote_overlays",
			Name:      "render_jobs_total",
			Help:      "Render jobs processed by the worker pool, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "emote_overlays",
			Name:      "render_duration_seconds",
			Help:      "Time spent running render jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emote_overlays",
			Name:      "render_jobs_in_flight",
			Help:      "Render jobs currently running.",
		}),
	}
	for _, c := range []prometheus.Collector{m.jobs, m.duration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	}
	return OutcomeError
}

func (m *Metrics) start() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) finish() {
	if m != nil {
		m.inFlight.Dec()
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.duration.Observe(elapsed.Seconds())
	}
}
