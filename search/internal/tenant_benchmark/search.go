package main

import (
	"fmt"
	"math"
	"time"

	"github.com/larose/sharedtext/search/sharedtext"
	"github.com/spf13/cobra"
)

const attempts = 10

type queryForm struct {
	name string
	run  func(reader *sharedtext.Reader, shard uint64, text string) ([]uint64, error)
}

var queryForms = []queryForm{
	{
		name: "match",
		run: func(reader *sharedtext.Reader, shard uint64, text string) ([]uint64, error) {
			return reader.MatchQuery(shard, text)
		},
	},
	{
		name: "match_minimum",
		run: func(reader *sharedtext.Reader, shard uint64, text string) ([]uint64, error) {
			return reader.MatchQueryWithMinimum(shard, text, 2)
		},
	},
	{
		name: "phrase",
		run: func(reader *sharedtext.Reader, shard uint64, text string) ([]uint64, error) {
			return reader.PhraseMatchQuery(shard, text, 0)
		},
	},
	{
		name: "phrase_slop",
		run: func(reader *sharedtext.Reader, shard uint64, text string) ([]uint64, error) {
			return reader.PhraseMatchQuery(shard, text, 2)
		},
	},
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Ingest the synthetic corpus then time every query form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			c := newCorpus(cfg.Benchmark)

			writer, shards, err := ingest(cfg, c)
			if err != nil {
				return err
			}
			defer writer.Close()

			if len(shards) == 0 {
				return nil
			}

			reader, err := writer.CreateReader()
			if err != nil {
				return err
			}
			defer reader.Close()

			stopProfiler, err := startCpuProfiler(cpuProfile)
			if err != nil {
				return err
			}

			if err := runQueries(reader, c, shards, cfg.Benchmark.Queries); err != nil {
				_ = stopProfiler()
				return err
			}

			return stopProfiler()
		},
	}
}

func runQueries(reader *sharedtext.Reader, c *corpus, shards [][]string, queries int) error {
	for _, form := range queryForms {
		var total time.Duration
		var best time.Duration = math.MaxInt64
		hits := 0

		for q := 0; q < queries; q++ {
			shard := c.rng.Intn(len(shards))
			text := c.phrase(shards[shard])

			for j := 0; j < attempts; j++ {
				start := time.Now()

				localIds, err := form.run(reader, uint64(shard), text)
				if err != nil {
					return err
				}

				elapsed := time.Since(start)
				if elapsed < best {
					best = elapsed
				}
				if j == 0 {
					total += elapsed
					hits += len(localIds)
				}
			}
		}

		if queries == 0 {
			continue
		}

		fmt.Printf("%s: best %d us, mean %d us, %.1f hits/query\n",
			form.name, best.Microseconds(), total.Microseconds()/int64(queries), float64(hits)/float64(queries))
	}

	return nil
}
