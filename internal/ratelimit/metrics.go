package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	decisions   *prometheus.CounterVec
	breakerOpen prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_ratelimit_decisions_total",
			Help: "Rate limit decisions by endpoint class and outcome",
		}, []string{"class", "result"}),
		breakerOpen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tollgate_ratelimit_fallback_activations_total",
			Help: "Times the shared rate limit store was bypassed for the in-process fallback",
		}),
	}
}

func (m *Metrics) ObserveDecision(class Class, allowed bool) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "limited"
	}
	m.decisions.WithLabelValues(string(class), result).Inc()
}

func (m *Metrics) ObserveBreakerOpen() {
	if m == nil {
		return
	}
	m.breakerOpen.Inc()
}
