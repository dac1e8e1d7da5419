package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/larose/sharedtext/search/config"
)

type corpus struct {
	vocabulary []string
	rng        *rand.Rand
	words      int
}

func newCorpus(cfg config.BenchmarkConfig) *corpus {
	vocabulary := make([]string, max(1, cfg.Vocabulary))
	for i := range vocabulary {
		vocabulary[i] = fmt.Sprintf("w%d", i)
	}

	return &corpus{
		vocabulary: vocabulary,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		words:      max(1, cfg.WordsPerDoc),
	}
}

// word draws from a skewed distribution so that low ids behave like
// frequent terms.
func (c *corpus) word() string {
	n := len(c.vocabulary)
	i := c.rng.Intn(n)
	return c.vocabulary[c.rng.Intn(i+1)]
}

func (c *corpus) text(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.word())
	}
	return b.String()
}

func (c *corpus) shard(docs int) []string {
	texts := make([]string, docs)
	for i := range texts {
		texts[i] = c.text(c.words)
	}
	return texts
}

// phrase picks two adjacent words of an existing text so that phrase
// queries have a chance to match.
func (c *corpus) phrase(texts []string) string {
	if len(texts) == 0 {
		return c.text(2)
	}

	words := strings.Fields(texts[c.rng.Intn(len(texts))])
	if len(words) < 2 {
		return strings.Join(words, " ")
	}

	i := c.rng.Intn(len(words) - 1)
	return words[i] + " " + words[i+1]
}
