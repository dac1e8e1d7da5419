package query

import (
	"github.com/larose/sharedtext/search/index"
)

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// Node
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type TermNode struct {
	FieldName string
	Term      []byte
}

func (t *TermNode) Compile(context *QueryContext) (CompiledNode, error) {
	if _, err := context.indexedField(t.FieldName); err != nil {
		return nil, err
	}

	fieldIndex, termIndex := context.RegisterTerm(t.FieldName, t.Term)
	return &CompiledTermNode{fieldName: t.FieldName, fieldIndex: fieldIndex, termIndex: termIndex}, nil
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// CompiledTermNode
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type CompiledTermNode struct {
	fieldName string
	// field index in query context
	fieldIndex int
	// term index in query context
	termIndex int
}

func (t *CompiledTermNode) CreateDocIterator(context *ExecutionContext, segmentIndex int) (DocIterator, error) {
	it, err := t.createTermDocIterator(context, segmentIndex)
	if err != nil || it == nil {
		return nil, err
	}

	return it, nil
}

func (t *CompiledTermNode) createTermDocIterator(context *ExecutionContext, segmentIndex int) (*TermDocIterator, error) {
	postingsIterator, err := context.postingsIterator(segmentIndex, t.fieldIndex, t.termIndex, t.fieldName)
	if err != nil || postingsIterator == nil {
		return nil, err
	}

	return newTermDocIterator(postingsIterator, context.norms(segmentIndex, t.fieldIndex), context.idf(t.fieldIndex, t.termIndex)), nil
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// TermDocIterator
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type TermDocIterator struct {
	postingsIterator *index.PostingsIterator
	fieldLengthNorms *index.FieldLengthNorms
	termIdf          float32
}

func newTermDocIterator(postingsIterator *index.PostingsIterator, fieldLengthNorms *index.FieldLengthNorms, termIdf float32) *TermDocIterator {
	return &TermDocIterator{
		postingsIterator: postingsIterator,
		fieldLengthNorms: fieldLengthNorms,
		termIdf:          termIdf,
	}
}

func (t *TermDocIterator) DocId() index.DocumentId {
	return t.postingsIterator.DocId()
}

func (t *TermDocIterator) Next(docId index.DocumentId) bool {
	return t.postingsIterator.Next(docId)
}

// Score is BM25. Fields without norms use K1 as length norm.
func (t *TermDocIterator) Score() float32 {
	termFreq := float32(t.postingsIterator.TermFreq())
	lengthNorm := t.fieldLengthNorms.Get(t.postingsIterator.DocId())
	termFreqFactor := (termFreq * (index.Bm25K1 + 1)) / (termFreq + lengthNorm)
	return t.termIdf * termFreqFactor
}

func (t *TermDocIterator) Positions() []uint32 {
	return t.postingsIterator.Positions()
}

func (t *TermDocIterator) Err() error {
	return t.postingsIterator.Err()
}
