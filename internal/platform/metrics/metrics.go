package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process level Prometheus metrics that do not belong to a
// single domain service. Methods are safe on a nil receiver.
type Metrics struct {
	LedgerVerifications *prometheus.CounterVec
	BackgroundFailures  *prometheus.CounterVec
}

// New creates and registers the process metrics.
func New() *Metrics {
	return &Metrics{
		LedgerVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_ledger_verifications_total",
			Help: "Journal verifications run from the admin surface, by result",
		}, []string{"result"}),
		BackgroundFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_background_failures_total",
			Help: "Background components that exited with an error",
		}, []string{"component"}),
	}
}

// ObserveVerification records one verification outcome: "ok", "broken" or
// "error".
func (m *Metrics) ObserveVerification(result string) {
	if m == nil {
		return
	}
	m.LedgerVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementBackgroundFailure(component string) {
	if m == nil {
		return
	}
	m.BackgroundFailures.WithLabelValues(component).Inc()
}
