package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/larose/sharedtext/search/sharedtext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Writer.FieldName)
	assert.Equal(t, "default", cfg.Writer.TokenizerName)
	assert.Equal(t, sharedtext.DefaultCommitInterval, cfg.SharedIndex.CommitInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Benchmark.Shards)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
writer:
  fieldName: body
  tokenizerName: english_tokenizer
  analyzerParams: '{"type": "english"}'
  numThreads: 4
  memoryBudgetBytes: 1048576
sharedIndex:
  commitInterval: 1s
logging:
  level: debug
  format: json
benchmark:
  shards: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "body", cfg.Writer.FieldName)
	assert.Equal(t, "english_tokenizer", cfg.Writer.TokenizerName)
	assert.Equal(t, `{"type": "english"}`, cfg.Writer.AnalyzerParams)
	assert.Equal(t, 4, cfg.Writer.NumThreads)
	assert.Equal(t, 1048576, cfg.Writer.MemoryBudgetBytes)
	assert.Equal(t, time.Second, cfg.SharedIndex.CommitInterval)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Benchmark.Shards)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, 1000, cfg.Benchmark.DocsPerShard)
	assert.Equal(t, 8, cfg.Writer.MaxSegments)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "writer:\n  numThreads: 4\n")

	t.Setenv("STI_WRITER_NUM_THREADS", "2")
	t.Setenv("STI_WRITER_FIELD_NAME", "content")
	t.Setenv("STI_SHARED_INDEX_COMMIT_INTERVAL", "50ms")
	t.Setenv("STI_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Writer.NumThreads)
	assert.Equal(t, "content", cfg.Writer.FieldName)
	assert.Equal(t, 50*time.Millisecond, cfg.SharedIndex.CommitInterval)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "writer: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "writer:\n  fieldName: _shard_id\n"))
	assert.ErrorIs(t, err, sharedtext.ErrConfig)

	t.Setenv("STI_WRITER_NUM_THREADS", "many")
	_, err = Load("")
	assert.Error(t, err)
}
