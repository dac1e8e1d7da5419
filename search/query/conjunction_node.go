package query

import (
	"github.com/larose/sharedtext/search/index"
)

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// ConjunctionDocIterator
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

// ConjunctionDocIterator leapfrogs its children until they agree on a doc id.
type ConjunctionDocIterator struct {
	childIterators []DocIterator
	docId          index.DocumentId
	started        bool
	exhausted      bool
}

func newConjunctionDocIterator(childIterators []DocIterator) *ConjunctionDocIterator {
	return &ConjunctionDocIterator{
		childIterators: childIterators,
	}
}

func (c *ConjunctionDocIterator) DocId() index.DocumentId {
	return c.docId
}

func (c *ConjunctionDocIterator) Next(docId index.DocumentId) bool {
	if c.exhausted || len(c.childIterators) == 0 {
		c.exhausted = true
		return false
	}

	if c.started && c.docId >= docId {
		return true
	}
	c.started = true

	target := docId
	for {
		aligned := true

		for _, child := range c.childIterators {
			if !child.Next(target) {
				c.exhausted = true
				return false
			}

			if child.DocId() != target {
				target = child.DocId()
				aligned = false
				break
			}
		}

		if aligned {
			c.docId = target
			return true
		}
	}
}

func (c *ConjunctionDocIterator) Score() float32 {
	score := float32(0)
	for _, child := range c.childIterators {
		score += child.Score()
	}

	return score
}

func (c *ConjunctionDocIterator) Err() error {
	return firstErr(c.childIterators)
}
