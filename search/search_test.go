package search_test

import (
	"testing"

	"github.com/larose/sharedtext/search"
	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/query"
	"github.com/larose/sharedtext/search/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimpleSchema() *index.Schema {
	return index.NewSchemaBuilder().
		AddU64Field("id", index.NumericOptions{Indexed: true, Fast: true}).
		AddTextField("body", index.TextOptions{Tokenizer: index.DefaultTokenizer, Positions: true, Norms: true}).
		AddTextField("title", index.TextOptions{Tokenizer: index.DefaultTokenizer, Positions: true, Norms: true}).
		Build()
}

func newDoc(id uint64, body string, title string) index.Document {
	return index.Document{
		index.NewU64Field("id", id),
		index.NewTextField("body", []byte(body)),
		index.NewTextField("title", []byte(title)),
	}
}

// initSimpleIndex commits two batches, hence two segments.
func initSimpleIndex(t *testing.T) (*index.Index, *index.IndexWriter) {
	t.Helper()

	idx := index.NewIndex(newSimpleSchema())

	indexWriter, err := idx.Writer(index.IndexWriterOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = indexWriter.Close() })

	{
		docs := []index.Document{
			newDoc(9, "This is a hello world. Business.", "Hello, world"),
			newDoc(3, "After years of struggling to stay afloat, a beloved local business... business world", "Local Business Closes its Doors"),
			newDoc(89, "This is an apple. This is an orange. This is a car.", "This is"),
		}

		for _, doc := range docs {
			_, err := indexWriter.AddDocument(doc)
			require.NoError(t, err)
		}

		_, err := indexWriter.Commit()
		require.NoError(t, err)
	}

	{
		_, err := indexWriter.AddDocument(newDoc(34, "Roger that", "Ok, this is ok"))
		require.NoError(t, err)

		_, err = indexWriter.Commit()
		require.NoError(t, err)
	}

	return idx, indexWriter
}

func openSearcher(t *testing.T, idx *index.Index) *index.Searcher {
	t.Helper()

	indexReader := idx.Reader()
	t.Cleanup(func() { _ = indexReader.Close() })

	searcher, err := indexReader.Searcher()
	require.NoError(t, err)
	t.Cleanup(searcher.Close)

	return searcher
}

func topIds(t *testing.T, searcher *index.Searcher, _query query.Node) []uint64 {
	t.Helper()

	results, err := search.Search(_query, searcher, query.NewTopNCollector(10))
	require.NoError(t, err)

	ids := make([]uint64, len(results))
	for i, result := range results {
		value, exists, err := searcher.Value("id", result.DocId)
		require.NoError(t, err)
		require.True(t, exists)
		ids[i] = value
	}

	return ids
}

func TestSearchRootDisjunctionNode(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.BooleanNode{
		Clauses: []*query.BooleanClause{
			{
				Type: query.Should,
				Node: &query.TermNode{FieldName: "body", Term: []byte("hello")},
			},
		},
	}

	assert.Equal(t, []uint64{9}, topIds(t, searcher, _query))
}

func TestSearchRootTermNode(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.TermNode{FieldName: "body", Term: []byte("hello")}

	assert.Equal(t, []uint64{9}, topIds(t, searcher, _query))
}

func TestSearchBodyTwoDocuments(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.TermNode{FieldName: "body", Term: []byte("business")}

	assert.Equal(t, []uint64{3, 9}, topIds(t, searcher, _query))
}

func TestSearchTitleTwoDocuments(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.TermNode{FieldName: "title", Term: []byte("is")}

	assert.Equal(t, []uint64{89, 34}, topIds(t, searcher, _query))
}

func TestSearchDeleteDocument(t *testing.T) {
	idx, indexWriter := initSimpleIndex(t)

	_, err := indexWriter.DeleteTerm("id", utils.Uint64ToBytes(89))
	require.NoError(t, err)

	_, err = indexWriter.Commit()
	require.NoError(t, err)

	searcher := openSearcher(t, idx)

	_query := &query.TermNode{FieldName: "title", Term: []byte("is")}

	assert.Equal(t, []uint64{34}, topIds(t, searcher, _query))
}

func TestSearchAcrossTwoFields(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.BooleanNode{
		Clauses: []*query.BooleanClause{
			{
				Type: query.Should,
				Node: &query.TermNode{FieldName: "title", Term: []byte("is")},
			},
			{
				Type: query.Should,
				Node: &query.TermNode{FieldName: "body", Term: []byte("is")},
			},
		},
	}

	assert.Equal(t, []uint64{89, 9, 34}, topIds(t, searcher, _query))
}

func TestSearchConjunctive(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.BooleanNode{
		Clauses: []*query.BooleanClause{
			{
				Type: query.Must,
				Node: &query.TermNode{FieldName: "title", Term: []byte("is")},
			},
			{
				Type: query.Must,
				Node: &query.TermNode{FieldName: "body", Term: []byte("that")},
			},
		},
	}

	assert.Equal(t, []uint64{34}, topIds(t, searcher, _query))
}

func TestSearchMustNot(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.BooleanNode{
		Clauses: []*query.BooleanClause{
			{
				Type: query.Must,
				Node: &query.TermNode{FieldName: "title", Term: []byte("is")},
			},
			{
				Type: query.MustNot,
				Node: &query.TermNode{FieldName: "body", Term: []byte("apple")},
			},
		},
	}

	assert.Equal(t, []uint64{34}, topIds(t, searcher, _query))
}

func TestSearchOnlyMustNotMatchesNothing(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.BooleanNode{
		Clauses: []*query.BooleanClause{
			{
				Type: query.MustNot,
				Node: &query.TermNode{FieldName: "body", Term: []byte("apple")},
			},
		},
	}

	assert.Empty(t, topIds(t, searcher, _query))
}

func TestSearchMinimumShouldMatch(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	newQuery := func(minimumShouldMatch int) query.Node {
		return &query.BooleanNode{
			MinimumShouldMatch: minimumShouldMatch,
			Clauses: []*query.BooleanClause{
				{Type: query.Should, Node: &query.TermNode{FieldName: "body", Term: []byte("this")}},
				{Type: query.Should, Node: &query.TermNode{FieldName: "body", Term: []byte("hello")}},
				{Type: query.Should, Node: &query.TermNode{FieldName: "body", Term: []byte("world")}},
			},
		}
	}

	assert.ElementsMatch(t, []uint64{9, 3, 89}, topIds(t, searcher, newQuery(1)))
	assert.ElementsMatch(t, []uint64{9}, topIds(t, searcher, newQuery(2)))
	assert.ElementsMatch(t, []uint64{9}, topIds(t, searcher, newQuery(3)))
	assert.Empty(t, topIds(t, searcher, newQuery(4)))
}

func TestSearchPhrase(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	newPhrase := func(slop uint32, terms ...string) query.Node {
		phraseTerms := make([]query.PhraseTerm, len(terms))
		for i, term := range terms {
			phraseTerms[i] = query.PhraseTerm{Offset: uint32(i), Term: []byte(term)}
		}

		return &query.PhraseNode{FieldName: "body", Terms: phraseTerms, Slop: slop}
	}

	assert.Equal(t, []uint64{9}, topIds(t, searcher, newPhrase(0, "hello", "world")))
	assert.Equal(t, []uint64{3}, topIds(t, searcher, newPhrase(0, "business", "world")))
	assert.Empty(t, topIds(t, searcher, newPhrase(0, "world", "hello")))

	assert.Empty(t, topIds(t, searcher, newPhrase(1, "local", "world")))
	assert.Equal(t, []uint64{3}, topIds(t, searcher, newPhrase(2, "local", "world")))
}

func TestSearchPhraseRequiresPositions(t *testing.T) {
	schema := index.NewSchemaBuilder().
		AddTextField("body", index.TextOptions{Tokenizer: index.DefaultTokenizer}).
		Build()
	idx := index.NewIndex(schema)
	searcher := openSearcher(t, idx)

	_query := &query.PhraseNode{
		FieldName: "body",
		Terms: []query.PhraseTerm{
			{Offset: 0, Term: []byte("hello")},
			{Offset: 1, Term: []byte("world")},
		},
	}

	_, err := search.Search(_query, searcher, query.NewTopNCollector(10))
	assert.ErrorIs(t, err, index.ErrPositionsNotStored)
}

func TestSearchUnknownField(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_, err := search.Search(&query.TermNode{FieldName: "missing", Term: []byte("a")}, searcher, query.CountCollector{})
	assert.ErrorIs(t, err, index.ErrFieldNotFound)
}

func TestParallelSearchMatchesSequential(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_query := &query.TermNode{FieldName: "body", Term: []byte("is")}

	sequential, err := search.Search(_query, searcher, query.NewTopNCollector(10))
	require.NoError(t, err)

	parallel, err := search.ParallelSearch(_query, searcher, query.NewTopNCollector(10), 4)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)

	count, err := search.ParallelSearch(_query, searcher, query.CountCollector{}, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestSearchEmptyPhrase(t *testing.T) {
	idx, _ := initSimpleIndex(t)
	searcher := openSearcher(t, idx)

	_, err := search.Search(&query.PhraseNode{FieldName: "body"}, searcher, query.CountCollector{})
	assert.ErrorIs(t, err, query.ErrEmptyPhrase)
}

func TestTopNKeepsLowestDocIdsOnTies(t *testing.T) {
	idx := index.NewIndex(newSimpleSchema())

	indexWriter, err := idx.Writer(index.IndexWriterOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = indexWriter.Close() })

	for id := uint64(0); id < 5; id++ {
		_, err := indexWriter.AddDocument(newDoc(id, "same words", "same"))
		require.NoError(t, err)
	}

	_, err = indexWriter.Commit()
	require.NoError(t, err)

	searcher := openSearcher(t, idx)

	results, err := search.Search(&query.TermNode{FieldName: "body", Term: []byte("same")}, searcher, query.NewTopNCollector(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Less(t, results[0].DocId, results[1].DocId)

	assert.Equal(t, []uint64{0, 1}, topIds(t, searcher, &query.TermNode{FieldName: "body", Term: []byte("same")})[:2])
}
