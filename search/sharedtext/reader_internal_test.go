package sharedtext

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFallsBackToStandardAnalyzer(t *testing.T) {
	var logs bytes.Buffer
	m := metrics.New(prometheus.NewRegistry())

	schema, fields := BuildSchema("text", "unregistered")
	idx := index.NewIndex(schema)

	reader := newReader(idx, fields, newOptions([]Option{
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithMetrics(m),
	}))
	defer reader.Close()

	localIds, err := reader.MatchQuery(1, "hello world")
	require.NoError(t, err)
	assert.Empty(t, localIds)
	assert.NotNil(t, localIds)

	localIds, err = reader.PhraseMatchQuery(1, "hello world", 0)
	require.NoError(t, err)
	assert.Empty(t, localIds)

	assert.Contains(t, logs.String(), "falling back to the standard analyzer")
	assert.Contains(t, logs.String(), "level=WARN")

	tokens := reader.tokenize("Hello, World")
	require.Len(t, tokens, 2)
	assert.Equal(t, "hello", string(tokens[0].Term))
	assert.Equal(t, "world", string(tokens[1].Term))
}

func TestFallbackIsCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	schema, fields := BuildSchema("text", "unregistered")
	reader := newReader(index.NewIndex(schema), fields, newOptions([]Option{WithMetrics(m)}))
	defer reader.Close()

	_, err := reader.MatchQuery(1, "a")
	require.NoError(t, err)
	_, err = reader.MatchQueryWithMinimum(1, "a b", 2)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				values[family.GetName()] += metric.GetCounter().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["sharedtext_analyzer_fallbacks_total"])
	assert.Equal(t, 2.0, values["sharedtext_queries_total"])
}

func TestBuildSchema(t *testing.T) {
	schema, fields := BuildSchema("body", "custom")

	assert.Equal(t, Fields{Text: "body", Shard: "_shard_id", LocalId: "_local_doc_id"}, fields)

	text, exists := schema.Field("body")
	require.True(t, exists)
	assert.Equal(t, index.TextFieldType, text.Type)
	assert.Equal(t, "custom", text.Text.Tokenizer)
	assert.True(t, text.HasPositions())
	assert.False(t, text.HasNorms())

	shard, exists := schema.Field(ShardField)
	require.True(t, exists)
	assert.True(t, shard.IsIndexed())
	assert.True(t, shard.IsFast())

	localId, exists := schema.Field(LocalIdField)
	require.True(t, exists)
	assert.False(t, localId.IsIndexed())
	assert.True(t, localId.IsFast())
}

func TestLocalIdCollectorMergesInSegmentOrder(t *testing.T) {
	merged, err := localIdCollector{}.MergeFruits([][]uint64{{3, 1}, nil, {2}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1, 2}, merged)

	empty, err := localIdCollector{}.MergeFruits(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.False(t, localIdCollector{}.RequiresScoring())
}
