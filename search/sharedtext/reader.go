package sharedtext

import (
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/larose/sharedtext/search"
	"github.com/larose/sharedtext/search/analyzer"
	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/metrics"
	"github.com/larose/sharedtext/search/query"
	"github.com/larose/sharedtext/search/utils"
)

// Reader answers shard-scoped queries on a pinned snapshot. It moves to the
// latest commit only on Reload. Queries may run concurrently with each other
// and with Reload; each one keeps the snapshot it started on.
type Reader struct {
	index  *index.Index
	reader *index.IndexReader
	fields Fields

	logger      *slog.Logger
	metrics     *metrics.Metrics
	parallelism int
}

func newReader(idx *index.Index, fields Fields, o options) *Reader {
	return &Reader{
		index:       idx,
		reader:      idx.Reader(),
		fields:      fields,
		logger:      o.logger,
		metrics:     o.metrics,
		parallelism: o.parallelism,
	}
}

func (r *Reader) Reload() error {
	if err := r.reader.Reload(); err != nil {
		return engineError("reload", err)
	}

	return nil
}

// Generation of the pinned snapshot.
func (r *Reader) Generation() uint64 {
	return r.reader.Generation()
}

// MatchQuery returns the local ids of the shard's documents holding at least
// one token of text.
func (r *Reader) MatchQuery(shard uint64, text string) ([]uint64, error) {
	start := time.Now()
	localIds, err := r.matchQuery(shard, text, 1)
	r.metrics.OnQuery(metrics.QueryMatch, time.Since(start), err)

	return localIds, err
}

// MatchQueryWithMinimum returns the local ids of the shard's documents
// holding at least max(1, minimumShouldMatch) distinct tokens of text.
func (r *Reader) MatchQueryWithMinimum(shard uint64, text string, minimumShouldMatch int) ([]uint64, error) {
	start := time.Now()
	localIds, err := r.matchQuery(shard, text, max(1, minimumShouldMatch))
	r.metrics.OnQuery(metrics.QueryMatchMinimum, time.Since(start), err)

	return localIds, err
}

func (r *Reader) matchQuery(shard uint64, text string, minimumShouldMatch int) ([]uint64, error) {
	if !utf8.ValidString(text) {
		return nil, errInvalidQuery("match query")
	}

	tokens := r.tokenize(text)
	if len(tokens) == 0 {
		return []uint64{}, nil
	}

	seen := make(map[string]struct{}, len(tokens))
	clauses := make([]*query.BooleanClause, 0, len(tokens))
	for _, token := range tokens {
		if _, exists := seen[string(token.Term)]; exists {
			continue
		}
		seen[string(token.Term)] = struct{}{}

		clauses = append(clauses, &query.BooleanClause{
			Type: query.Should,
			Node: &query.TermNode{FieldName: r.fields.Text, Term: token.Term},
		})
	}

	textQuery := &query.BooleanNode{
		Clauses:            clauses,
		MinimumShouldMatch: minimumShouldMatch,
	}

	return r.search("match query", r.inShard(shard, textQuery))
}

// PhraseMatchQuery returns the local ids of the shard's documents holding
// the tokens of text in order, with at most slop positions of displacement.
// A single token query is a plain MatchQuery.
func (r *Reader) PhraseMatchQuery(shard uint64, text string, slop uint32) ([]uint64, error) {
	start := time.Now()
	localIds, err := r.phraseMatchQuery(shard, text, slop)
	r.metrics.OnQuery(metrics.QueryPhrase, time.Since(start), err)

	return localIds, err
}

func (r *Reader) phraseMatchQuery(shard uint64, text string, slop uint32) ([]uint64, error) {
	if !utf8.ValidString(text) {
		return nil, errInvalidQuery("phrase match query")
	}

	tokens := r.tokenize(text)

	switch len(tokens) {
	case 0:
		return []uint64{}, nil
	case 1:
		textQuery := &query.TermNode{FieldName: r.fields.Text, Term: tokens[0].Term}
		return r.search("phrase match query", r.inShard(shard, textQuery))
	}

	terms := make([]query.PhraseTerm, len(tokens))
	for i, token := range tokens {
		terms[i] = query.PhraseTerm{Offset: queryOffset(token), Term: token.Term}
	}

	phraseQuery := &query.PhraseNode{
		FieldName: r.fields.Text,
		Terms:     terms,
		Slop:      slop,
	}

	return r.search("phrase match query", r.inShard(shard, phraseQuery))
}

// Analyzer positions are 1-based. Gaps left by removed tokens are kept.
func errInvalidQuery(op string) *Error {
	return newError(KindEncoding, op, errors.New("query is not valid UTF-8"))
}

func queryOffset(token *analysis.Token) uint32 {
	if token.Position <= 0 {
		return 0
	}

	return uint32(token.Position - 1)
}

func (r *Reader) inShard(shard uint64, textQuery query.Node) query.Node {
	return &query.BooleanNode{
		Clauses: []*query.BooleanClause{
			{Type: query.Must, Node: textQuery},
			{Type: query.Must, Node: &query.TermNode{FieldName: r.fields.Shard, Term: utils.Uint64ToBytes(shard)}},
		},
	}
}

func (r *Reader) search(op string, _query query.Node) ([]uint64, error) {
	searcher, err := r.reader.Searcher()
	if err != nil {
		return nil, engineError(op, err)
	}
	defer searcher.Close()

	localIds, err := search.ParallelSearch(_query, searcher, localIdCollector{fieldName: r.fields.LocalId}, r.parallelism)
	if err != nil {
		return nil, engineError(op, err)
	}

	return localIds, nil
}

// tokenize falls back to the standard analyzer when the analyzer of the text
// field is not registered.
func (r *Reader) tokenize(text string) analysis.TokenStream {
	a, err := r.index.TokenizerForField(r.fields.Text)
	if err != nil {
		r.logger.Warn("falling back to the standard analyzer", "field", r.fields.Text, "error", err)
		r.metrics.AnalyzerFallbacks.Inc()
		a = analyzer.Standard()
	}

	return a.Analyze([]byte(text))
}

// RegisterTokenizer registers on the registry shared with the writer.
func (r *Reader) RegisterTokenizer(name string, analyzerParams string) error {
	return registerTokenizer(r.index, name, analyzerParams)
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
