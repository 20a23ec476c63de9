// Package metrics provides Prometheus collectors for transaction
// throughput, compliance/fraud block rates, and event-pipeline queue
// depth — the business metrics this core exposes, grounded on the
// teacher's infrastructure/metrics collector-registration pattern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every collector this core registers, used both by the
// fixed collectors below and by Recorder's lazily-registered ones.
var Registry = prometheus.NewRegistry()

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexum",
			Subsystem: "transactions",
			Name:      "total",
			Help:      "Total number of transactions processed, by type and final state",
		},
		[]string{"type", "state"},
	)

	transactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexum",
			Subsystem: "transactions",
			Name:      "duration_seconds",
			Help:      "Transaction processing duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"type"},
	)

	complianceBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexum",
			Subsystem: "compliance",
			Name:      "actions_total",
			Help:      "Total compliance gate decisions, by action (ALLOW|FLAG|BLOCK)",
		},
		[]string{"action"},
	)

	fraudDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexum",
			Subsystem: "fraud",
			Name:      "decisions_total",
			Help:      "Total fraud scoring decisions, by decision (APPROVE|REVIEW|BLOCK)",
		},
		[]string{"decision"},
	)

	dispatcherQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nexum",
		Subsystem: "dispatcher",
		Name:      "subscriptions",
		Help:      "Current number of registered in-process event subscriptions",
	})

	busQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nexum",
		Subsystem: "bus",
		Name:      "queue_depth",
		Help:      "Current number of envelopes buffered in the external event bus queue",
	})
)

func init() {
	Registry.MustRegister(
		transactionsTotal, transactionDuration, complianceBlocks,
		fraudDecisions, dispatcherQueueDepth, busQueueDepth,
	)
}

// RecordTransaction records a completed transaction's type, final state,
// and processing duration.
func RecordTransaction(txnType, state string, duration float64) {
	transactionsTotal.WithLabelValues(txnType, state).Inc()
	transactionDuration.WithLabelValues(txnType).Observe(duration)
}

// RecordComplianceAction records a compliance gate decision.
func RecordComplianceAction(action string) {
	complianceBlocks.WithLabelValues(action).Inc()
}

// RecordFraudDecision records a fraud scorer decision.
func RecordFraudDecision(decision string) {
	fraudDecisions.WithLabelValues(decision).Inc()
}

// SetDispatcherSubscriptions reports the dispatcher's current subscriber
// count.
func SetDispatcherSubscriptions(n int) {
	dispatcherQueueDepth.Set(float64(n))
}

// SetBusQueueDepth reports the external bus's current buffered envelope
// count.
func SetBusQueueDepth(n int) {
	busQueueDepth.Set(float64(n))
}
