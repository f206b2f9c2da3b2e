// Package chainsyncmetrics exposes the operational counters and gauges a
// chain synchronizer should publish: tracker occupancy, sync outcomes, pull
// loop request volume, and peer RPC latency.
package chainsyncmetrics

import (
	"errors"

	"github.com/ava-labs/chain-synchronizer/internal/chainsync"
	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "chainsync"

type Metrics struct {
	trackerBytes    prometheus.Gauge
	trackerMaxBytes prometheus.Gauge

	syncAttempts *prometheus.CounterVec
	pullRequests prometheus.Counter
	blocksPulled prometheus.Counter
	txPulled     prometheus.Counter

	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	rpcInFlight prometheus.Gauge
}

// New creates a Metrics instance and registers all metrics with reg.
// Returns an error if any metric registration fails.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		trackerBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tracker_bytes",
			Help:      "Bytes currently resident in the unprocessed elements tracker",
		}),
		trackerMaxBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tracker_max_bytes",
			Help:      "Configured byte cap for the unprocessed elements tracker",
		}),
		syncAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_attempts_total",
			Help:      "Total Sync invocations by outcome",
		}, []string{"result"}),
		pullRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pull_requests_total",
			Help:      "Total BlocksFrom requests issued to peers",
		}),
		blocksPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "blocks_pulled_total",
			Help:      "Total blocks returned by peers in BlocksFrom responses",
		}),
		txPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "unconfirmed_transactions_pulled_total",
			Help:      "Total unconfirmed transactions accepted from peers",
		}),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total peer RPC calls by method and status",
		}, []string{"method", "status"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Peer RPC call duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		rpcInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "in_flight",
			Help:      "Number of peer RPC calls currently in progress",
		}),
	}

	err := errors.Join(
		reg.Register(m.trackerBytes),
		reg.Register(m.trackerMaxBytes),
		reg.Register(m.syncAttempts),
		reg.Register(m.pullRequests),
		reg.Register(m.blocksPulled),
		reg.Register(m.txPulled),
		reg.Register(m.rpcCalls),
		reg.Register(m.rpcDuration),
		reg.Register(m.rpcInFlight),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordSync records the outcome of one Synchronizer.Sync call.
func (m *Metrics) RecordSync(result chainsync.NodeInteractionResult) {
	m.syncAttempts.WithLabelValues(result.String()).Inc()
}

// RecordPull records one BlocksFrom request and the blocks it returned.
func (m *Metrics) RecordPull(blocks int) {
	m.pullRequests.Inc()
	m.blocksPulled.Add(float64(blocks))
}

// RecordUnconfirmedTransactions records transactions accepted from a peer.
func (m *Metrics) RecordUnconfirmedTransactions(count int) {
	m.txPulled.Add(float64(count))
}

// UpdateTrackerOccupancy updates the tracker byte gauges.
func (m *Metrics) UpdateTrackerOccupancy(bytes, maxBytes int) {
	m.trackerBytes.Set(float64(bytes))
	m.trackerMaxBytes.Set(float64(maxBytes))
}

// IncRPCInFlight increments the in-flight peer RPC gauge.
func (m *Metrics) IncRPCInFlight() { m.rpcInFlight.Inc() }

// DecRPCInFlight decrements the in-flight peer RPC gauge.
func (m *Metrics) DecRPCInFlight() { m.rpcInFlight.Dec() }

// RecordRPCCall records a peer RPC call outcome.
func (m *Metrics) RecordRPCCall(method string, err error, durationSeconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.rpcCalls.WithLabelValues(method, status).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(durationSeconds)
}
