package reindexer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for reindex passes. A nil *Metrics
// records nothing.
type Metrics struct {
	SegmentsScanned prometheus.Counter
	RecordsScanned  *prometheus.CounterVec
	BytesScanned    prometheus.Counter
	CorruptSegments prometheus.Counter
	Duration        prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	segments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rosbag2_reindex_segments_scanned_total",
		Help: "Segments read to completion",
	})

	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rosbag2_reindex_records_scanned_total",
		Help: "Records observed per topic",
	}, []string{"topic"})

	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rosbag2_reindex_bytes_scanned_total",
		Help: "Payload bytes observed",
	})

	corrupt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rosbag2_reindex_corrupt_segments_total",
		Help: "Segments that could not be opened or read to their end",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rosbag2_reindex_duration_seconds",
		Help:    "Wall time of reindex passes",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	reg.MustRegister(segments, records, bytes, corrupt, duration)

	return &Metrics{
		SegmentsScanned: segments,
		RecordsScanned:  records,
		BytesScanned:    bytes,
		CorruptSegments: corrupt,
		Duration:        duration,
	}
}

func (m *Metrics) record(topic string, size int) {
	if m == nil {
		return
	}
	m.RecordsScanned.WithLabelValues(topic).Inc()
	m.BytesScanned.Add(float64(size))
}

func (m *Metrics) segmentScanned() {
	if m != nil {
		m.SegmentsScanned.Inc()
	}
}

func (m *Metrics) corruptSegment() {
	if m != nil {
		m.CorruptSegments.Inc()
	}
}

func (m *Metrics) observe(seconds float64) {
	if m != nil {
		m.Duration.Observe(seconds)
	}
}
