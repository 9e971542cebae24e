package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerStoreRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_store",
		Name:      "operations_total",
		Help:      "Count of ledger store operations.",
	}, []string{"backend", "operation", "status"})
	ledgerStoreRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "ledger_store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger store operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"backend", "operation", "status"})
)

// LedgerStore tracks metrics for ledger store operations of one backend.
type LedgerStore struct {
	backend string
}

// NewLedgerStore creates a LedgerStore collector, e.g. for "clickhouse" or "postgres".
func NewLedgerStore(backend string) *LedgerStore {
	if backend == "" {
		backend = "unknown"
	}
	return &LedgerStore{backend: backend}
}

// Observe records duration and status of a store operation.
func (m LedgerStore) Observe(operation string, err error, started time.Time) {
	status := statusLabel(err)
	ledgerStoreRequestsTotal.WithLabelValues(m.backend, operation, status).Inc()
	ledgerStoreRequestDuration.WithLabelValues(m.backend, operation, status).Observe(time.Since(started).Seconds())
}
