package index

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchema() *Schema {
	return NewSchemaBuilder().
		AddU64Field("id", NumericOptions{Indexed: true, Fast: true}).
		AddTextField("body", TextOptions{Tokenizer: DefaultTokenizer, Positions: true, Norms: true}).
		Build()
}

func TestPostingsIteratorAcrossBlocks(t *testing.T) {
	schema := newTestSchema()

	docs := make([]Document, 0, 300)
	for i := 0; i < 300; i++ {
		body := "filler"
		if i%2 == 0 {
			body = "even filler even"
		}
		docs = append(docs, Document{NewU64Field("id", uint64(i)), NewTextField("body", []byte(body))})
	}

	segment, err := buildSegment(0, schema, NewTokenizerManager(), docs)
	require.NoError(t, err)
	defer segment.DecRef()

	it, termInfo, err := segment.PostingsForTerm("body", []byte("even"))
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, uint32(150), termInfo.DocFreq)

	count := 0
	docId := DocumentId(0)
	for it.Next(docId) {
		assert.Equal(t, DocumentId(count*2), it.DocId())
		assert.Equal(t, uint32(2), it.TermFreq())
		assert.Equal(t, []uint32{0, 2}, it.Positions())

		docId = it.DocId() + 1
		count++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 150, count)

	// Skipping lands on the first doc at or after the target.
	it, _, err = segment.PostingsForTerm("body", []byte("even"))
	require.NoError(t, err)
	require.True(t, it.Next(257))
	assert.Equal(t, DocumentId(258), it.DocId())
	require.True(t, it.Next(258))
	assert.Equal(t, DocumentId(258), it.DocId())
	assert.False(t, it.Next(299))

	missing, _, err := segment.PostingsForTerm("body", []byte("odd"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSegmentColumnsAndNorms(t *testing.T) {
	schema := newTestSchema()

	docs := []Document{
		{NewU64Field("id", 42), NewTextField("body", []byte("one two three"))},
		{NewTextField("body", []byte("four"))},
	}

	segment, err := buildSegment(7, schema, NewTokenizerManager(), docs)
	require.NoError(t, err)
	defer segment.DecRef()

	assert.Equal(t, uint32(7), segment.Id)
	assert.Equal(t, uint32(2), segment.NumDocs)

	columnReader, err := segment.ColumnReader("id")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), columnReader.Get(0))
	assert.Equal(t, uint64(0), columnReader.Get(1))

	_, err = segment.ColumnReader("body")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	fieldLengthReader := segment.FieldLengthReader("body")
	require.NotNil(t, fieldLengthReader)
	assert.Equal(t, uint32(3), fieldLengthReader.Get(0))
	assert.Equal(t, uint32(1), fieldLengthReader.Get(1))

	stats := segment.FieldStats("body")
	assert.Equal(t, uint32(2), stats.DocCount)
	assert.Equal(t, uint64(4), stats.SumTermFreq)
}

func TestRepeatedTextFieldContinuesPositions(t *testing.T) {
	schema := newTestSchema()

	docs := []Document{
		{NewTextField("body", []byte("alpha beta")), NewTextField("body", []byte("gamma"))},
	}

	segment, err := buildSegment(0, schema, NewTokenizerManager(), docs)
	require.NoError(t, err)
	defer segment.DecRef()

	it, _, err := segment.PostingsForTerm("body", []byte("gamma"))
	require.NoError(t, err)
	require.True(t, it.Next(0))
	assert.Equal(t, []uint32{2}, it.Positions())
}

func TestSegmentReferences(t *testing.T) {
	segment, err := buildSegment(0, newTestSchema(), NewTokenizerManager(), []Document{{NewU64Field("id", 1)}})
	require.NoError(t, err)

	segment.IncRef()
	segment.DecRef()
	segment.DecRef()

	assert.Panics(t, segment.IncRef)
}

func TestMergeSegmentsPurgesDeletedDocuments(t *testing.T) {
	schema := newTestSchema()
	tokenizers := NewTokenizerManager()

	readers := make([]*SegmentReader, 0, 3)
	for segmentId := uint32(0); segmentId < 3; segmentId++ {
		docs := make([]Document, 0, 4)
		for i := 0; i < 4; i++ {
			id := uint64(segmentId)*10 + uint64(i)
			docs = append(docs, Document{
				NewU64Field("id", id),
				NewTextField("body", []byte(fmt.Sprintf("shared word%d", id))),
			})
		}

		segment, err := buildSegment(segmentId, schema, tokenizers, docs)
		require.NoError(t, err)
		defer segment.DecRef()

		readers = append(readers, newSegmentReader(segment, nil))
	}

	// id 11 lives at doc 1 of segment 1
	readers[1].DeletedDocIds.Add(1)

	merged, err := mergeSegments(3, schema, readers)
	require.NoError(t, err)
	defer merged.DecRef()

	assert.Equal(t, uint32(11), merged.NumDocs)

	columnReader, err := merged.ColumnReader("id")
	require.NoError(t, err)

	ids := make([]uint64, merged.NumDocs)
	for docId := range ids {
		ids[docId] = columnReader.Get(DocumentId(docId))
	}
	assert.Equal(t, []uint64{0, 1, 2, 3, 10, 12, 13, 20, 21, 22, 23}, ids)

	it, termInfo, err := merged.PostingsForTerm("body", []byte("shared"))
	require.NoError(t, err)
	assert.Equal(t, uint32(11), termInfo.DocFreq)
	require.True(t, it.Next(5))
	assert.Equal(t, []uint32{0}, it.Positions())

	deleted, _, err := merged.PostingsForTerm("body", []byte("word11"))
	require.NoError(t, err)
	assert.Nil(t, deleted)

	it, _, err = merged.PostingsForTerm("body", []byte("word12"))
	require.NoError(t, err)
	require.True(t, it.Next(0))
	assert.Equal(t, DocumentId(5), it.DocId())
	assert.Equal(t, []uint32{1}, it.Positions())

	assert.Equal(t, uint32(2), merged.FieldLengthReader("body").Get(0))
}

func TestPostingsIteratorRejectsOversizedBlock(t *testing.T) {
	data := make([]byte, headerSize+4)
	data[0] = blockSize + 1
	binary.BigEndian.PutUint32(data[5:], 500)
	binary.BigEndian.PutUint32(data[14:], uint32(len(data)))

	it := newPostingsIterator(data)
	assert.False(t, it.Next(0))
	assert.ErrorIs(t, it.Err(), ErrCorruptPostings)
}
