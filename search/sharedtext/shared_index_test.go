package sharedtext_test

import (
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/larose/sharedtext/search/sharedtext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSharedIndex(t *testing.T, commitInterval time.Duration) *sharedtext.SharedIndex {
	t.Helper()

	index, err := sharedtext.NewSharedIndex(sharedtext.WriterConfig{
		FieldName:      "text",
		TokenizerName:  "default",
		AnalyzerParams: "{}",
	}, commitInterval)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func bitmapMatch(t *testing.T, index *sharedtext.SharedIndex, shard uint64, text string, minimumShouldMatch int, rowCount uint64) []uint32 {
	t.Helper()

	bitmap, err := index.MatchQuery(shard, text, minimumShouldMatch, rowCount)
	require.NoError(t, err)

	return bitmap.ToArray()
}

func bitmapPhrase(t *testing.T, index *sharedtext.SharedIndex, shard uint64, text string, slop uint32, rowCount uint64) []uint32 {
	t.Helper()

	bitmap, err := index.PhraseMatchQuery(shard, text, slop, rowCount)
	require.NoError(t, err)

	return bitmap.ToArray()
}

func TestSharedIndex(t *testing.T) {
	index := newSharedIndex(t, time.Hour)

	index.RegisterShard(1)
	index.RegisterShard(2)
	assert.Equal(t, 2, index.ShardCount())

	require.NoError(t, index.AddTexts(1, []string{"hello world", "hello rust"}, nil, 0))
	require.NoError(t, index.AddTexts(2, []string{"hello python", "goodbye world"}, nil, 0))
	require.NoError(t, index.Commit())

	assert.Equal(t, []uint32{0, 1}, bitmapMatch(t, index, 1, "hello", 1, 2))
	assert.Equal(t, []uint32{0}, bitmapMatch(t, index, 2, "hello", 1, 2))
	assert.Equal(t, []uint32{1}, bitmapMatch(t, index, 2, "world", 1, 2))

	require.NoError(t, index.UnregisterShard(1))
	assert.Equal(t, 1, index.ShardCount())

	require.NoError(t, index.Commit())
	require.NoError(t, index.Reload())

	assert.Empty(t, bitmapMatch(t, index, 1, "hello", 1, 2))
	assert.Equal(t, []uint32{0}, bitmapMatch(t, index, 2, "hello", 1, 2))
}

func TestSharedIndexWithNulls(t *testing.T) {
	index := newSharedIndex(t, time.Hour)
	index.RegisterShard(1)

	texts := []string{"hello world", "", "hello rust"}
	require.NoError(t, index.AddTexts(1, texts, []bool{true, false, true}, 0))
	require.NoError(t, index.Commit())

	assert.Equal(t, []uint32{0, 2}, bitmapMatch(t, index, 1, "hello", 1, 3))

	view := sharedtext.NewShardView(index, 1, 3)
	assert.Equal(t, []uint32{0, 1, 2}, view.IsNotNull().ToArray())
}

func TestSharedIndexPhraseMatch(t *testing.T) {
	index := newSharedIndex(t, time.Hour)
	index.RegisterShard(1)

	texts := []string{"hello world today", "hello beautiful world", "world hello"}
	require.NoError(t, index.AddTexts(1, texts, nil, 0))
	require.NoError(t, index.Commit())

	assert.Equal(t, []uint32{0}, bitmapPhrase(t, index, 1, "hello world", 0, 3))
	assert.Equal(t, []uint32{0, 1}, bitmapPhrase(t, index, 1, "hello world", 1, 3))
}

func TestSharedIndexMinimumShouldMatch(t *testing.T) {
	index := newSharedIndex(t, time.Hour)

	require.NoError(t, index.AddTexts(1, []string{"a b", "a c", "b c", "a b c"}, nil, 0))
	require.NoError(t, index.Commit())

	assert.Equal(t, []uint32{0, 1, 3}, bitmapMatch(t, index, 1, "a", 0, 4))
	assert.Equal(t, []uint32{0, 1, 2, 3}, bitmapMatch(t, index, 1, "a b c", 2, 4))
	assert.Equal(t, []uint32{3}, bitmapMatch(t, index, 1, "a b c", 3, 4))
}

func TestSharedIndexDropsRowsPastRowCount(t *testing.T) {
	index := newSharedIndex(t, time.Hour)

	require.NoError(t, index.AddTexts(1, []string{"x", "x", "x", "x"}, nil, 0))
	require.NoError(t, index.Commit())

	assert.Equal(t, []uint32{0, 1}, bitmapMatch(t, index, 1, "x", 1, 2))
	assert.Empty(t, bitmapMatch(t, index, 1, "x", 1, 0))
	assert.Equal(t, []uint32{0, 1, 2, 3}, bitmapPhrase(t, index, 1, "x", 0, 100))
}

func TestSharedIndexTryCommit(t *testing.T) {
	index := newSharedIndex(t, time.Hour)

	require.NoError(t, index.AddTexts(1, []string{"pending"}, nil, 0))

	// Within the interval nothing is committed.
	assert.Empty(t, bitmapMatch(t, index, 1, "pending", 1, 10))

	eager := newSharedIndex(t, -1)

	require.NoError(t, eager.AddTexts(1, []string{"visible"}, nil, 0))
	assert.Equal(t, []uint32{0}, bitmapMatch(t, eager, 1, "visible", 1, 10))

	// The reader opened by the query above is reloaded by the next one.
	require.NoError(t, eager.Writer().AddText(1, 1, "visible later"))
	assert.Equal(t, []uint32{0, 1}, bitmapMatch(t, eager, 1, "visible", 1, 10))
}

func TestShardView(t *testing.T) {
	index := newSharedIndex(t, time.Hour)

	require.NoError(t, index.AddTexts(5, []string{"alpha beta", "beta gamma", "gamma alpha"}, nil, 0))
	require.NoError(t, index.Commit())

	var matcher sharedtext.TextMatcher = sharedtext.NewShardView(index, 5, 3)

	bitmap, err := matcher.MatchQuery("alpha", 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, bitmap.ToArray())

	bitmap, err = matcher.MatchQuery("alpha beta gamma", 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, bitmap.ToArray())

	bitmap, err = matcher.PhraseMatchQuery("beta gamma", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, bitmap.ToArray())

	assert.True(t, matcher.IsNotNull().Equals(roaring.BitmapOf(0, 1, 2)))

	view := sharedtext.NewShardView(index, 5, 3)
	view.SetRowCount(1)
	bitmap, err = view.MatchQuery("alpha", 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, bitmap.ToArray())
	assert.Equal(t, uint64(1), view.IsNotNull().GetCardinality())
}

func TestSharedIndexClose(t *testing.T) {
	index := newSharedIndex(t, time.Hour)

	require.NoError(t, index.AddTexts(1, []string{"text"}, nil, 0))
	require.NoError(t, index.Close())

	_, err := index.MatchQuery(1, "text", 1, 1)
	assert.ErrorIs(t, err, sharedtext.ErrClosed)
}
