// Package config loads the shared text index configuration from a YAML file
// with STI_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/larose/sharedtext/search/sharedtext"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Writer      sharedtext.WriterConfig `yaml:"writer"`
	SharedIndex SharedIndexConfig       `yaml:"sharedIndex"`
	Logging     LoggingConfig           `yaml:"logging"`
	Benchmark   BenchmarkConfig         `yaml:"benchmark"`
}

// SharedIndexConfig tunes the lifecycle wrapper. Parallelism bounds the
// number of segments a query searches at once.
type SharedIndexConfig struct {
	CommitInterval time.Duration `yaml:"commitInterval"`
	Parallelism    int           `yaml:"parallelism"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BenchmarkConfig sizes the synthetic corpus of the tenant benchmark.
type BenchmarkConfig struct {
	Shards       int   `yaml:"shards"`
	DocsPerShard int   `yaml:"docsPerShard"`
	Queries      int   `yaml:"queries"`
	Vocabulary   int   `yaml:"vocabulary"`
	WordsPerDoc  int   `yaml:"wordsPerDoc"`
	Seed         int64 `yaml:"seed"`
}

// Load reads path, if not empty, over the defaults then applies the
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Writer.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Default() *Config {
	return &Config{
		Writer: sharedtext.DefaultWriterConfig("text"),
		SharedIndex: SharedIndexConfig{
			CommitInterval: sharedtext.DefaultCommitInterval,
			Parallelism:    1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Benchmark: BenchmarkConfig{
			Shards:       100,
			DocsPerShard: 1000,
			Queries:      1000,
			Vocabulary:   5000,
			WordsPerDoc:  12,
			Seed:         1,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	stringFields := map[string]*string{
		"STI_WRITER_FIELD_NAME":      &cfg.Writer.FieldName,
		"STI_WRITER_TOKENIZER_NAME":  &cfg.Writer.TokenizerName,
		"STI_WRITER_ANALYZER_PARAMS": &cfg.Writer.AnalyzerParams,
		"STI_LOGGING_LEVEL":          &cfg.Logging.Level,
		"STI_LOGGING_FORMAT":         &cfg.Logging.Format,
	}
	for name, field := range stringFields {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}

	intFields := map[string]*int{
		"STI_WRITER_NUM_THREADS":         &cfg.Writer.NumThreads,
		"STI_WRITER_MEMORY_BUDGET_BYTES": &cfg.Writer.MemoryBudgetBytes,
		"STI_WRITER_MAX_SEGMENTS":        &cfg.Writer.MaxSegments,
		"STI_SHARED_INDEX_PARALLELISM":   &cfg.SharedIndex.Parallelism,
		"STI_BENCHMARK_SHARDS":           &cfg.Benchmark.Shards,
		"STI_BENCHMARK_DOCS_PER_SHARD":   &cfg.Benchmark.DocsPerShard,
		"STI_BENCHMARK_QUERIES":          &cfg.Benchmark.Queries,
	}
	for name, field := range intFields {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		*field = n
	}

	if v, ok := os.LookupEnv("STI_SHARED_INDEX_COMMIT_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing STI_SHARED_INDEX_COMMIT_INTERVAL: %w", err)
		}
		cfg.SharedIndex.CommitInterval = d
	}

	return nil
}
