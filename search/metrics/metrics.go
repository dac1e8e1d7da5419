// Package metrics holds the prometheus collectors of the shared text index.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sharedtext"

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Query kinds, used as the kind label.
const (
	QueryMatch        = "match"
	QueryMatchMinimum = "match_minimum"
	QueryPhrase       = "phrase"
)

type Metrics struct {
	DocumentsAdded    prometheus.Counter
	ShardDeletes      prometheus.Counter
	CommitsTotal      *prometheus.CounterVec
	CommitLatency     prometheus.Histogram
	SegmentsFlushed   prometheus.Counter
	SegmentsMerged    prometheus.Counter
	Segments          prometheus.Gauge
	QueriesTotal      *prometheus.CounterVec
	QueryLatency      *prometheus.HistogramVec
	AnalyzerFallbacks prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which suits tests and embedded use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_added_total",
				Help:      "Total documents added to the writer.",
			},
		),
		ShardDeletes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shard_deletes_total",
				Help:      "Total shard delete operations.",
			},
		),
		CommitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Total commits by status.",
			},
			[]string{"status"},
		),
		CommitLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "commit_duration_seconds",
				Help:      "Commit latency in seconds.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		SegmentsFlushed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_flushed_total",
				Help:      "Total segments built by writer flushes.",
			},
		),
		SegmentsMerged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_merged_total",
				Help:      "Total segments consumed by merges.",
			},
		),
		Segments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "segments",
				Help:      "Number of segments in the last committed snapshot.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total queries by kind and status.",
			},
			[]string{"kind", "status"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"kind"},
		),
		AnalyzerFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyzer_fallbacks_total",
				Help:      "Queries tokenized with the standard analyzer because the field analyzer could not be resolved.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.DocumentsAdded,
			m.ShardDeletes,
			m.CommitsTotal,
			m.CommitLatency,
			m.SegmentsFlushed,
			m.SegmentsMerged,
			m.Segments,
			m.QueriesTotal,
			m.QueryLatency,
			m.AnalyzerFallbacks,
		)
	}

	return m
}

func (m *Metrics) OnFlush(docs int, segments int) {
	m.SegmentsFlushed.Add(float64(segments))
}

func (m *Metrics) OnMerge(segments int) {
	m.SegmentsMerged.Add(float64(segments))
}

func (m *Metrics) OnCommit(segments int, duration time.Duration, err error) {
	m.CommitLatency.Observe(duration.Seconds())

	if err != nil {
		m.CommitsTotal.WithLabelValues(StatusError).Inc()
		return
	}

	m.CommitsTotal.WithLabelValues(StatusOK).Inc()
	m.Segments.Set(float64(segments))
}

func (m *Metrics) OnQuery(kind string, duration time.Duration, err error) {
	m.QueryLatency.WithLabelValues(kind).Observe(duration.Seconds())

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.QueriesTotal.WithLabelValues(kind, status).Inc()
}
