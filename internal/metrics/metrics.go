// Package metrics exposes Prometheus collectors for the ring server.
//
// All recording methods are safe to call on a nil *Metrics, which is what
// callers get when metrics are disabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ringsock"

// Seek results used as the "result" label of seeks_total.
const (
	SeekResolved   = "resolved"
	SeekMalformed  = "malformed"
	SeekOutOfRange = "out_of_range"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	recordsCommitted  prometheus.Counter
	entriesEvicted    prometheus.Counter
	seeksTotal        *prometheus.CounterVec
	bytesReceived     prometheus.Counter
	bytesSent         prometheus.Counter
	liveEntries       prometheus.Gauge
	streamBytes       prometheus.Gauge
	replyDuration     prometheus.Histogram
	lockWait          prometheus.Histogram
}

// New creates the collectors and registers them with reg.
// A nil registerer yields nil metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open client connections",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),
		recordsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_committed_total",
			Help:      "Total number of data records committed to the ring",
		}),
		entriesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_evicted_total",
			Help:      "Total number of entries evicted from a full ring",
		}),
		seeksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeks_total",
			Help:      "Total number of seek commands by result",
		}, []string{"result"}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total bytes read from clients",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total bytes written to clients",
		}),
		liveEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_entries",
			Help:      "Number of entries currently held by the ring",
		}),
		streamBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_bytes",
			Help:      "Total size of the live entries",
		}),
		replyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_duration_seconds",
			Help:      "Time spent streaming one reply",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for exclusive store access",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	reg.MustRegister(
		m.connectionsActive,
		m.connectionsTotal,
		m.recordsCommitted,
		m.entriesEvicted,
		m.seeksTotal,
		m.bytesReceived,
		m.bytesSent,
		m.liveEntries,
		m.streamBytes,
		m.replyDuration,
		m.lockWait,
	)
	return m
}

// ConnectionOpened records an accepted connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

// ConnectionClosed records a finished connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

// RecordCommitted records one committed record and the resulting ring shape.
func (m *Metrics) RecordCommitted(evicted bool, live int, stream int64) {
	if m == nil {
		return
	}
	m.recordsCommitted.Inc()
	if evicted {
		m.entriesEvicted.Inc()
	}
	m.StoreShape(live, stream)
}

// StoreShape sets the live entry and stream size gauges.
func (m *Metrics) StoreShape(live int, stream int64) {
	if m == nil {
		return
	}
	m.liveEntries.Set(float64(live))
	m.streamBytes.Set(float64(stream))
}

// Seek records a seek command outcome.
func (m *Metrics) Seek(result string) {
	if m == nil {
		return
	}
	m.seeksTotal.WithLabelValues(result).Inc()
}

// Received adds n bytes read from a client.
func (m *Metrics) Received(n int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(n))
}

// Sent adds n bytes written to a client.
func (m *Metrics) Sent(n int64) {
	if m == nil {
		return
	}
	m.bytesSent.Add(float64(n))
}

// ObserveReply records how long one reply took.
func (m *Metrics) ObserveReply(d time.Duration) {
	if m == nil {
		return
	}
	m.replyDuration.Observe(d.Seconds())
}

// ObserveLockWait records how long a caller waited for exclusive access.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
