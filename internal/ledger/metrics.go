package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ledger transactions.
type Metrics struct {
	TxDuration *prometheus.HistogramVec
	TxTotal    *prometheus.CounterVec
}

// NewMetrics registers the ledger metrics. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		TxDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tollgate_ledger_tx_duration_seconds",
			Help:    "Duration of ledger transactions including lock wait",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"backend"}),
		TxTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_ledger_tx_total",
			Help: "Ledger transactions by outcome",
		}, []string{"backend", "result"}), // result: "committed", "aborted"
	}
}

func (m *Metrics) observe(backend string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	result := "committed"
	if err != nil {
		result = "aborted"
	}
	m.TxTotal.WithLabelValues(backend, result).Inc()
}
