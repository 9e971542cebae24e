// Package metrics exposes application metrics collectors.
package metrics

import (
	"sync"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-evm/internal/evm/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingesterProcessHeightTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "evm_ingester",
		Name:      "process_height_total",
		Help:      "Count of block heights processed.",
	}, []string{"chain", "status"})

	ingesterProcessHeightDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "evm_ingester",
		Name:      "process_height_duration_seconds",
		Help:      "Duration of fetching, normalizing and writing one height.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain", "status"})

	ingesterTipHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "evm_ingester",
		Name:      "tip_height",
		Help:      "Latest height reported by the node.",
	}, []string{"chain"})

	ingesterNextHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "evm_ingester",
		Name:      "next_height",
		Help:      "Next height the ingester will fetch.",
	}, []string{"chain"})

	ingesterState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "evm_ingester",
		Name:      "state",
		Help:      "Current loop state; the active state is 1.",
	}, []string{"chain", "state"})

	ingesterFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "evm_ingester",
		Name:      "faults_total",
		Help:      "Count of faults that sent the loop into backoff, by kind.",
	}, []string{"chain", "kind"})
)

// Ingester tracks metrics for the indexing loop.
type Ingester struct {
	chain model.Chain

	mu    sync.Mutex
	state string
}

// NewIngester constructs an Ingester collector for the chain.
func NewIngester(chain model.Chain) *Ingester {
	if chain == "" {
		chain = "unknown"
	}
	return &Ingester{chain: chain}
}

// ObserveProcessHeight records the outcome and duration of a single height.
func (m *Ingester) ObserveProcessHeight(err error, _ uint64, started time.Time) {
	status := statusLabel(err)
	ingesterProcessHeightTotal.WithLabelValues(string(m.chain), status).Inc()
	ingesterProcessHeightDuration.WithLabelValues(string(m.chain), status).
		Observe(time.Since(started).Seconds())
}

// SetTipHeight records the node tip.
func (m *Ingester) SetTipHeight(height uint64) {
	ingesterTipHeight.WithLabelValues(string(m.chain)).Set(float64(height))
}

// SetNextHeight records the next height to ingest.
func (m *Ingester) SetNextHeight(height uint64) {
	ingesterNextHeight.WithLabelValues(string(m.chain)).Set(float64(height))
}

// SetState marks state as active and clears the previous one.
func (m *Ingester) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == state {
		return
	}
	if m.state != "" {
		ingesterState.WithLabelValues(string(m.chain), m.state).Set(0)
	}
	ingesterState.WithLabelValues(string(m.chain), state).Set(1)
	m.state = state
}

// ObserveFault counts a fault of the given kind.
func (m *Ingester) ObserveFault(kind string) {
	ingesterFaultsTotal.WithLabelValues(string(m.chain), kind).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
