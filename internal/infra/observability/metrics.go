package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger core.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so a future server wrapper can serve it at /metrics.
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	transactionsTotal *prometheus.CounterVec
	persistenceErrors *prometheus.CounterVec
	dormancyFlips     prometheus.Counter
	accountsTotal     *prometheus.GaugeVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// ledger metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transactions_total",
				Help: "Total transaction records written, by type.",
			},
			[]string{"type"},
		),
		persistenceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_persistence_errors_total",
				Help: "Total durable-write failures that rolled back a mutation.",
			},
			[]string{"op"},
		),
		dormancyFlips: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_dormancy_flips_total",
				Help: "Accounts flipped Active→Inactive by the dormancy rule.",
			},
		),
		accountsTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledger_accounts",
				Help: "Accounts currently held in the ledger, by status.",
			},
			[]string{"status"},
		),
	}
}

// RecordOperationDuration records the duration of a ledger operation.
func (m *Metrics) RecordOperationDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrTransaction counts one written transaction record of the given type.
func (m *Metrics) IncrTransaction(txType string) {
	m.transactionsTotal.WithLabelValues(txType).Inc()
}

// IncrPersistenceError counts a rolled-back durable write.
func (m *Metrics) IncrPersistenceError(op string) {
	m.persistenceErrors.WithLabelValues(op).Inc()
}

// IncrDormancyFlip counts one Active→Inactive dormancy transition.
func (m *Metrics) IncrDormancyFlip() {
	m.dormancyFlips.Inc()
}

// SetAccountCount sets the current number of accounts in a status.
func (m *Metrics) SetAccountCount(status string, n int) {
	m.accountsTotal.WithLabelValues(status).Set(float64(n))
}
