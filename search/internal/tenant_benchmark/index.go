package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/larose/sharedtext/search/config"
	"github.com/larose/sharedtext/search/metrics"
	"github.com/larose/sharedtext/search/sharedtext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Ingest the synthetic corpus and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			stopProfiler, err := startCpuProfiler(cpuProfile)
			if err != nil {
				return err
			}

			writer, _, err := ingest(cfg, newCorpus(cfg.Benchmark))
			if err != nil {
				_ = stopProfiler()
				return err
			}
			defer writer.Close()

			return stopProfiler()
		},
	}
}

func newWriter(cfg *config.Config) (*sharedtext.Writer, error) {
	m := metrics.New(prometheus.NewRegistry())

	return sharedtext.NewWriter(cfg.Writer,
		sharedtext.WithLogger(slog.Default().With("component", "writer")),
		sharedtext.WithMetrics(m),
		sharedtext.WithParallelism(cfg.SharedIndex.Parallelism),
	)
}

// ingest returns the writer and the texts of every shard, keyed by shard.
func ingest(cfg *config.Config, c *corpus) (*sharedtext.Writer, [][]string, error) {
	writer, err := newWriter(cfg)
	if err != nil {
		return nil, nil, err
	}

	shards := make([][]string, cfg.Benchmark.Shards)

	start := time.Now()
	docs := 0
	for shard := range shards {
		shards[shard] = c.shard(cfg.Benchmark.DocsPerShard)

		if err := writer.AddTexts(uint64(shard), shards[shard], 0); err != nil {
			_ = writer.Close()
			return nil, nil, err
		}
		docs += len(shards[shard])
	}

	if err := writer.Commit(); err != nil {
		_ = writer.Close()
		return nil, nil, err
	}

	elapsed := time.Since(start)

	fmt.Printf("indexed %d docs in %d shards: %d ms (%.0f docs/s)\n",
		docs, len(shards), elapsed.Milliseconds(), float64(docs)/elapsed.Seconds())

	return writer, shards, nil
}
