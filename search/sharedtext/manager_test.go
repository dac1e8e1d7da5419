package sharedtext_test

import (
	"sync"
	"testing"

	"github.com/larose/sharedtext/search/sharedtext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configWithParams(analyzerParams string) sharedtext.WriterConfig {
	config := sharedtext.DefaultWriterConfig("text")
	config.TokenizerName = "shared_tokenizer"
	config.AnalyzerParams = analyzerParams
	return config
}

func TestManagerBasic(t *testing.T) {
	manager := sharedtext.NewManager(0)

	index1, err := manager.GetOrCreate(configWithParams("{}"))
	require.NoError(t, err)
	require.NotNil(t, index1)
	assert.Equal(t, 1, manager.IndexCount())

	index2, err := manager.GetOrCreate(configWithParams("{}"))
	require.NoError(t, err)
	assert.Same(t, index1, index2)
	assert.Equal(t, 1, manager.IndexCount())

	index3, err := manager.GetOrCreate(configWithParams(`{"tokenizer": "whitespace"}`))
	require.NoError(t, err)
	assert.NotSame(t, index1, index3)
	assert.Equal(t, 2, manager.IndexCount())

	assert.NotEqual(t, sharedtext.Key("{}"), sharedtext.Key(`{"tokenizer": "whitespace"}`))
}

func TestManagerRejectsBadConfig(t *testing.T) {
	manager := sharedtext.NewManager(0)

	_, err := manager.GetOrCreate(configWithParams(`{"tokenizer": "jieba"}`))
	assert.ErrorIs(t, err, sharedtext.ErrConfig)
	assert.Zero(t, manager.IndexCount())
}

func TestManagerTryRelease(t *testing.T) {
	manager := sharedtext.NewManager(0)

	index, err := manager.GetOrCreate(configWithParams("{}"))
	require.NoError(t, err)
	index.RegisterShard(1)

	released, err := manager.TryRelease("{}")
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, 1, manager.IndexCount())

	require.NoError(t, index.UnregisterShard(1))

	released, err = manager.TryRelease("{}")
	require.NoError(t, err)
	assert.True(t, released)
	assert.Zero(t, manager.IndexCount())

	released, err = manager.TryRelease("{}")
	require.NoError(t, err)
	assert.False(t, released)

	// A released index is closed, the next caller gets a fresh one.
	fresh, err := manager.GetOrCreate(configWithParams("{}"))
	require.NoError(t, err)
	assert.NotSame(t, index, fresh)
	t.Cleanup(func() { _, _ = manager.TryRelease("{}") })
}

func TestManagerConcurrentGetOrCreate(t *testing.T) {
	manager := sharedtext.NewManager(0)

	indexes := make([]*sharedtext.SharedIndex, 8)

	var wg sync.WaitGroup
	for i := range indexes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			index, err := manager.GetOrCreate(configWithParams("{}"))
			if err == nil {
				indexes[i] = index
			}
		}()
	}
	wg.Wait()

	for _, index := range indexes {
		assert.Same(t, indexes[0], index)
	}
	assert.Equal(t, 1, manager.IndexCount())
}

func TestDefaultManagerIsShared(t *testing.T) {
	assert.Same(t, sharedtext.DefaultManager(), sharedtext.DefaultManager())
}
