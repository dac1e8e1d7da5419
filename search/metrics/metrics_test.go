package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gathered returns the value of the counter, gauge or histogram sample count
// of name whose labels include the given pairs.
func gathered(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

	metrics:
		for _, metric := range family.GetMetric() {
			pairs := make(map[string]string, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				pairs[pair.GetName()] = pair.GetValue()
			}

			for key, value := range labels {
				if pairs[key] != value {
					continue metrics
				}
			}

			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	return 0
}

func TestWriterEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OnFlush(300, 2)
	m.OnFlush(10, 1)
	m.OnMerge(4)
	m.OnCommit(5, 3*time.Millisecond, nil)
	m.OnCommit(0, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 3.0, gathered(t, reg, "sharedtext_segments_flushed_total", nil))
	assert.Equal(t, 4.0, gathered(t, reg, "sharedtext_segments_merged_total", nil))
	assert.Equal(t, 1.0, gathered(t, reg, "sharedtext_commits_total", map[string]string{"status": StatusOK}))
	assert.Equal(t, 1.0, gathered(t, reg, "sharedtext_commits_total", map[string]string{"status": StatusError}))
	assert.Equal(t, 2.0, gathered(t, reg, "sharedtext_commit_duration_seconds", nil))

	// A failed commit leaves the gauge on the last published snapshot.
	assert.Equal(t, 5.0, gathered(t, reg, "sharedtext_segments", nil))
}

func TestQueryEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OnQuery(QueryMatch, time.Microsecond, nil)
	m.OnQuery(QueryMatch, time.Microsecond, nil)
	m.OnQuery(QueryPhrase, time.Microsecond, errors.New("boom"))
	m.AnalyzerFallbacks.Inc()

	assert.Equal(t, 2.0, gathered(t, reg, "sharedtext_queries_total", map[string]string{"kind": QueryMatch, "status": StatusOK}))
	assert.Equal(t, 1.0, gathered(t, reg, "sharedtext_queries_total", map[string]string{"kind": QueryPhrase, "status": StatusError}))
	assert.Equal(t, 2.0, gathered(t, reg, "sharedtext_query_duration_seconds", map[string]string{"kind": QueryMatch}))
	assert.Equal(t, 1.0, gathered(t, reg, "sharedtext_analyzer_fallbacks_total", nil))
}

func TestNilRegistererDoesNotRegister(t *testing.T) {
	first := New(nil)
	second := New(nil)

	first.DocumentsAdded.Inc()
	second.DocumentsAdded.Add(2)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(first.DocumentsAdded))
	assert.Equal(t, 1.0, gathered(t, reg, "sharedtext_documents_added_total", nil))
}
