package query

import "github.com/larose/sharedtext/search/index"

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// Node
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type Node interface {
	Compile(context *QueryContext) (CompiledNode, error)
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// CompiledNode
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type CompiledNode interface {
	// CreateDocIterator returns nil when nothing in the segment can match.
	CreateDocIterator(context *ExecutionContext, segmentIndex int) (DocIterator, error)
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// DocIterator
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

// DocIterator walks matching documents of one segment in ascending order.
type DocIterator interface {
	DocId() index.DocumentId
	// Next moves to the first matching document greater than or equal to
	// docId. It does not move when the iterator is already there.
	Next(docId index.DocumentId) bool
	Score() float32
	// Err reports why the iterator stopped early, if it did.
	Err() error
}

func firstErr(iterators []DocIterator) error {
	for _, it := range iterators {
		if err := it.Err(); err != nil {
			return err
		}
	}

	return nil
}

func removeElement(iterators []DocIterator, index int) []DocIterator {
	if index != len(iterators)-1 {
		iterators[index] = iterators[len(iterators)-1]
	}

	return iterators[:len(iterators)-1]
}
