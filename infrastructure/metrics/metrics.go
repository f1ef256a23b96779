// Package metrics holds the prometheus collectors of the ledger and the
// miner. Collectors are registered with the default registry the first time
// any of them is touched.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sedlyd"

var (
	prometheusLedgerBlocksAccepted prometheus.Counter
	prometheusLedgerBlocksRejected *prometheus.CounterVec
	prometheusLedgerReorgs         prometheus.Counter
	prometheusLedgerReorgDepth     prometheus.Histogram
	prometheusLedgerTipHeight      prometheus.Gauge
	prometheusLedgerSubmitBlock    prometheus.Histogram

	prometheusMiningHashes   prometheus.Counter
	prometheusMiningHashRate prometheus.Gauge
	prometheusMiningOutcomes *prometheus.CounterVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusLedgerBlocksAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "blocks_accepted",
			Help:      "Number of blocks accepted by the ledger",
		},
	)

	prometheusLedgerBlocksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "blocks_rejected",
			Help:      "Number of blocks rejected by the ledger, by rule",
		},
		[]string{"reason"},
	)

	prometheusLedgerReorgs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reorgs",
			Help:      "Number of best chain switches",
		},
	)

	prometheusLedgerReorgDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reorg_depth",
			Help:      "Number of blocks disconnected by a best chain switch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	prometheusLedgerTipHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tip_height",
			Help:      "Height of the best chain tip",
		},
	)

	prometheusLedgerSubmitBlock = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "submit_block_seconds",
			Help:      "Time taken to validate and commit a submitted block",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	prometheusMiningHashes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mining",
			Name:      "hashes",
			Help:      "Number of header hashes calculated by the miner",
		},
	)

	prometheusMiningHashRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mining",
			Name:      "hash_rate",
			Help:      "Hash rate of the last mining round, in hashes per second",
		},
	)

	prometheusMiningOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mining",
			Name:      "rounds",
			Help:      "Number of mining rounds, by outcome",
		},
		[]string{"outcome"},
	)
}

// BlockAccepted records a block that was accepted at tipHeight.
func BlockAccepted(tipHeight uint64, elapsed time.Duration) {
	initPrometheusMetrics()
	prometheusLedgerBlocksAccepted.Inc()
	prometheusLedgerTipHeight.Set(float64(tipHeight))
	prometheusLedgerSubmitBlock.Observe(elapsed.Seconds())
}

// BlockRejected records a block rejected for the given rule.
func BlockRejected(reason string) {
	initPrometheusMetrics()
	prometheusLedgerBlocksRejected.WithLabelValues(reason).Inc()
}

// Reorg records a best chain switch that disconnected depth blocks.
func Reorg(depth int) {
	initPrometheusMetrics()
	prometheusLedgerReorgs.Inc()
	prometheusLedgerReorgDepth.Observe(float64(depth))
}

// MiningRound records a finished mining round.
func MiningRound(outcome string, hashes uint64, hashRate float64) {
	initPrometheusMetrics()
	prometheusMiningHashes.Add(float64(hashes))
	prometheusMiningHashRate.Set(hashRate)
	prometheusMiningOutcomes.WithLabelValues(outcome).Inc()
}
