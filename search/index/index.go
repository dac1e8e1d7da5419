package index

import (
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
)

// Index is the state shared by the writer and the readers: schema, tokenizer
// registry and the latest committed snapshot. It never references a writer,
// so readers keep working after the writer is closed.
type Index struct {
	schema     *Schema
	tokenizers *TokenizerManager

	mutex        sync.Mutex
	latest       *Snapshot
	writerActive bool
	// Segment ids keep increasing across writers.
	nextSegmentId uint32
}

func NewIndex(schema *Schema) *Index {
	return &Index{
		schema:     schema,
		tokenizers: NewTokenizerManager(),
		latest:     &Snapshot{SegmentReaders: []*SegmentReader{}},
	}
}

func (index *Index) Schema() *Schema {
	return index.schema
}

func (index *Index) Tokenizers() *TokenizerManager {
	return index.tokenizers
}

// TokenizerForField resolves the analyzer of a text field.
func (index *Index) TokenizerForField(fieldName string) (analysis.Analyzer, error) {
	field, exists := index.schema.Field(fieldName)
	if !exists {
		return nil, &FieldError{Field: fieldName, Err: ErrFieldNotFound}
	}

	if field.Type != TextFieldType {
		return nil, &FieldError{Field: fieldName, Err: ErrFieldTypeMismatch}
	}

	a, exists := index.tokenizers.Get(field.Text.Tokenizer)
	if !exists {
		return nil, &FieldError{Field: fieldName, Err: ErrTokenizerNotFound}
	}

	return a, nil
}

// Writer opens the single writer of the index.
func (index *Index) Writer(options IndexWriterOptions) (*IndexWriter, error) {
	index.mutex.Lock()
	defer index.mutex.Unlock()

	if index.writerActive {
		return nil, ErrWriterExists
	}

	index.writerActive = true

	return newIndexWriter(index, index.nextSegmentId, options), nil
}

func (index *Index) writerClosed(nextSegmentId uint32) {
	index.mutex.Lock()
	defer index.mutex.Unlock()

	index.writerActive = false
	index.nextSegmentId = nextSegmentId
}

// Reader opens a reader pinned to the latest committed snapshot.
func (index *Index) Reader() *IndexReader {
	return newIndexReader(index, index.acquireLatest())
}

// acquireLatest returns the latest snapshot with a reference the caller
// must release.
func (index *Index) acquireLatest() *Snapshot {
	index.mutex.Lock()
	defer index.mutex.Unlock()

	index.latest.acquire()
	return index.latest
}

func (index *Index) publish(snapshot *Snapshot) {
	snapshot.acquire()

	index.mutex.Lock()
	previous := index.latest
	index.latest = snapshot
	index.mutex.Unlock()

	previous.release()
}

func (index *Index) Generation() uint64 {
	index.mutex.Lock()
	defer index.mutex.Unlock()

	return index.latest.Generation
}
