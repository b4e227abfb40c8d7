package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the token module.
// Create once per process; every method is safe on a nil receiver.
type Metrics struct {
	// Transfer decisions by gate reason ("allowed" for settled transfers)
	TransferOutcome *prometheus.CounterVec

	// Amount moved by settled transfers, in base units
	TransferVolume prometheus.Counter

	// Supply changes by direction ("mint", "burn")
	SupplyChange *prometheus.CounterVec

	TransferLatency prometheus.Histogram
	PauseState      prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		TransferOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_token_transfer_outcomes_total",
			Help: "Transfer decisions by gate reason",
		}, []string{"reason"}),
		TransferVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tollgate_token_transfer_volume_total",
			Help: "Base units moved by settled transfers",
		}),
		SupplyChange: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_token_supply_change_total",
			Help: "Base units minted or burned",
		}, []string{"direction"}),
		TransferLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tollgate_token_transfer_duration_seconds",
			Help:    "Duration of transfer evaluation and settlement",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		PauseState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tollgate_token_emergency_paused",
			Help: "1 while the token policy is emergency paused",
		}),
	}
}

func (m *Metrics) IncrementOutcome(reason string) {
	if m != nil {
		m.TransferOutcome.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) AddVolume(amount uint64) {
	if m != nil {
		m.TransferVolume.Add(float64(amount))
	}
}

func (m *Metrics) AddSupplyChange(direction string, amount uint64) {
	if m != nil {
		m.SupplyChange.WithLabelValues(direction).Add(float64(amount))
	}
}

// ObserveTransfer records the duration of a transfer.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	if m != nil {
		m.TransferLatency.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) SetPaused(paused bool) {
	if m == nil {
		return
	}
	if paused {
		m.PauseState.Set(1)
		return
	}
	m.PauseState.Set(0)
}
