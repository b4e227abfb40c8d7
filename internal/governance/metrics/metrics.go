package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance module.
// Create once per process; every method is safe on a nil receiver.
type Metrics struct {
	ProposalsCreated  *prometheus.CounterVec
	ProposalsExecuted *prometheus.CounterVec
	ProposalsRejected prometheus.Counter
	Approvals         prometheus.Counter
	ConfigChanges     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		ProposalsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_governance_proposals_created_total",
			Help: "Proposals created by action kind",
		}, []string{"kind"}),
		ProposalsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_governance_proposals_executed_total",
			Help: "Proposals executed by action kind",
		}, []string{"kind"}),
		ProposalsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tollgate_governance_proposals_rejected_total",
			Help: "Proposals rejected by a signer",
		}),
		Approvals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tollgate_governance_approvals_total",
			Help: "New approvals recorded (repeat approvals are not counted)",
		}),
		ConfigChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tollgate_governance_authority_changes_total",
			Help: "Authority-direct configuration changes by operation",
		}, []string{"operation"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tollgate_governance_operation_duration_seconds",
			Help:    "Duration of governance operations including the ledger transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementProposalCreated(kind string) {
	if m != nil {
		m.ProposalsCreated.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementProposalExecuted(kind string) {
	if m != nil {
		m.ProposalsExecuted.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementProposalRejected() {
	if m != nil {
		m.ProposalsRejected.Inc()
	}
}

func (m *Metrics) IncrementApproval() {
	if m != nil {
		m.Approvals.Inc()
	}
}

func (m *Metrics) IncrementConfigChange(operation string) {
	if m != nil {
		m.ConfigChanges.WithLabelValues(operation).Inc()
	}
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
