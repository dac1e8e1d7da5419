package sharedtext

import (
	"log/slog"
	"time"

	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/metrics"
)

const DefaultCommitInterval = 200 * time.Millisecond

// WriterConfig describes a shared index. AnalyzerParams are the JSON params
// of package analyzer, empty selects the standard analyzer.
type WriterConfig struct {
	FieldName         string `yaml:"fieldName"`
	TokenizerName     string `yaml:"tokenizerName"`
	AnalyzerParams    string `yaml:"analyzerParams"`
	NumThreads        int    `yaml:"numThreads"`
	MemoryBudgetBytes int    `yaml:"memoryBudgetBytes"`
	MaxSegments       int    `yaml:"maxSegments"`
}

func DefaultWriterConfig(fieldName string) WriterConfig {
	return WriterConfig{
		FieldName:         fieldName,
		TokenizerName:     index.DefaultTokenizer,
		NumThreads:        index.DefaultNumThreads,
		MemoryBudgetBytes: index.DefaultMemoryBudget,
		MaxSegments:       index.DefaultMaxSegments,
	}
}

func (c WriterConfig) Validate() error {
	const op = "validate config"

	switch c.FieldName {
	case "":
		return configError(op, "empty field name")
	case ShardField, LocalIdField:
		return configError(op, "field name %q is reserved", c.FieldName)
	}

	if c.TokenizerName == "" {
		return configError(op, "empty tokenizer name")
	}
	if c.NumThreads < 0 {
		return configError(op, "negative num threads %d", c.NumThreads)
	}
	if c.MemoryBudgetBytes < 0 {
		return configError(op, "negative memory budget %d", c.MemoryBudgetBytes)
	}
	if c.MaxSegments < 0 {
		return configError(op, "negative max segments %d", c.MaxSegments)
	}

	return nil
}

type options struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	parallelism int
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics shares one set of collectors between writers and readers.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithParallelism bounds the number of segments a query searches at once.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.Default().With("component", "sharedtext")
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}
	if o.parallelism <= 0 {
		o.parallelism = 1
	}

	return o
}
