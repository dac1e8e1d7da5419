package query

import (
	"github.com/larose/sharedtext/search/index"
)

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// DisjunctionDocIterator
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

// DisjunctionDocIterator matches the documents on which at least
// minimumShouldMatch children agree.
type DisjunctionDocIterator struct {
	childIterators     []DocIterator
	minimumShouldMatch int
	docId              index.DocumentId
	started            bool
	exhausted          bool
	err                error
}

func newDisjunctionDocIterator(childIterators []DocIterator, minimumShouldMatch int) *DisjunctionDocIterator {
	return &DisjunctionDocIterator{
		childIterators:     childIterators,
		minimumShouldMatch: max(minimumShouldMatch, 1),
	}
}

func (d *DisjunctionDocIterator) DocId() index.DocumentId {
	return d.docId
}

func (d *DisjunctionDocIterator) Next(docId index.DocumentId) bool {
	if d.exhausted {
		return false
	}

	if d.started && d.docId >= docId {
		return true
	}
	d.started = true

	target := docId
	for {
		minDocId := index.DocumentId(0)
		for i := 0; i < len(d.childIterators); {
			child := d.childIterators[i]
			if !child.Next(target) {
				if err := child.Err(); err != nil {
					return d.fail(err)
				}

				d.childIterators = removeElement(d.childIterators, i)
				continue
			}

			if i == 0 || child.DocId() < minDocId {
				minDocId = child.DocId()
			}
			i++
		}

		if len(d.childIterators) < d.minimumShouldMatch {
			d.exhausted = true
			return false
		}

		matching := 0
		for _, child := range d.childIterators {
			if child.DocId() == minDocId {
				matching++
			}
		}

		if matching >= d.minimumShouldMatch {
			d.docId = minDocId
			return true
		}

		target = minDocId + 1
	}
}

func (d *DisjunctionDocIterator) fail(err error) bool {
	d.err = err
	d.exhausted = true
	return false
}

func (d *DisjunctionDocIterator) Score() float32 {
	score := float32(0)
	for _, child := range d.childIterators {
		if child.DocId() == d.docId {
			score += child.Score()
		}
	}

	return score
}

func (d *DisjunctionDocIterator) Err() error {
	if d.err != nil {
		return d.err
	}

	return firstErr(d.childIterators)
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// ExclusionDocIterator
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

// ExclusionDocIterator drops the documents matched by any excluded iterator.
type ExclusionDocIterator struct {
	include   DocIterator
	excluded  []DocIterator
	exhausted bool
	err       error
}

func newExclusionDocIterator(include DocIterator, excluded []DocIterator) *ExclusionDocIterator {
	return &ExclusionDocIterator{
		include:  include,
		excluded: excluded,
	}
}

func (e *ExclusionDocIterator) DocId() index.DocumentId {
	return e.include.DocId()
}

func (e *ExclusionDocIterator) Next(docId index.DocumentId) bool {
	if e.exhausted {
		return false
	}

	for {
		if !e.include.Next(docId) {
			e.exhausted = true
			return false
		}

		candidate := e.include.DocId()
		excluded := false

		for i := 0; i < len(e.excluded); {
			child := e.excluded[i]
			if !child.Next(candidate) {
				if err := child.Err(); err != nil {
					e.err = err
					e.exhausted = true
					return false
				}

				e.excluded = removeElement(e.excluded, i)
				continue
			}

			if child.DocId() == candidate {
				excluded = true
				break
			}
			i++
		}

		if !excluded {
			return true
		}

		docId = candidate + 1
	}
}

func (e *ExclusionDocIterator) Score() float32 {
	return e.include.Score()
}

func (e *ExclusionDocIterator) Err() error {
	if e.err != nil {
		return e.err
	}

	return e.include.Err()
}
