package query

import (
	"errors"
	"sort"

	"github.com/larose/sharedtext/search/index"
)

var ErrEmptyPhrase = errors.New("phrase has no terms")

type PhraseTerm struct {
	// Position of the term in the query phrase.
	Offset uint32
	Term   []byte
}

// PhraseNode matches documents holding the terms in query order, with at
// most Slop positions of displacement relative to the query offsets.
type PhraseNode struct {
	FieldName string
	Terms     []PhraseTerm
	Slop      uint32
}

func (p *PhraseNode) Compile(context *QueryContext) (CompiledNode, error) {
	switch len(p.Terms) {
	case 0:
		return nil, ErrEmptyPhrase
	case 1:
		return (&TermNode{FieldName: p.FieldName, Term: p.Terms[0].Term}).Compile(context)
	}

	field, err := context.indexedField(p.FieldName)
	if err != nil {
		return nil, err
	}

	if !field.HasPositions() {
		return nil, &index.FieldError{Field: p.FieldName, Err: index.ErrPositionsNotStored}
	}

	compiled := &CompiledPhraseNode{
		terms:   make([]*CompiledTermNode, len(p.Terms)),
		offsets: make([]uint32, len(p.Terms)),
		slop:    p.Slop,
	}

	for i, phraseTerm := range p.Terms {
		fieldIndex, termIndex := context.RegisterTerm(p.FieldName, phraseTerm.Term)
		compiled.terms[i] = &CompiledTermNode{fieldName: p.FieldName, fieldIndex: fieldIndex, termIndex: termIndex}
		compiled.offsets[i] = phraseTerm.Offset
	}

	return compiled, nil
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// CompiledPhraseNode
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type CompiledPhraseNode struct {
	terms   []*CompiledTermNode
	offsets []uint32
	slop    uint32
}

func (p *CompiledPhraseNode) CreateDocIterator(context *ExecutionContext, segmentIndex int) (DocIterator, error) {
	termIterators := make([]*TermDocIterator, len(p.terms))
	childIterators := make([]DocIterator, len(p.terms))

	for i, term := range p.terms {
		it, err := term.createTermDocIterator(context, segmentIndex)
		if err != nil {
			return nil, err
		}

		if it == nil {
			return nil, nil
		}

		termIterators[i] = it
		childIterators[i] = it
	}

	return &PhraseDocIterator{
		conjunction:   newConjunctionDocIterator(childIterators),
		termIterators: termIterators,
		offsets:       p.offsets,
		slop:          p.slop,
		positions:     make([][]uint32, len(termIterators)),
	}, nil
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// PhraseDocIterator
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type PhraseDocIterator struct {
	conjunction   *ConjunctionDocIterator
	termIterators []*TermDocIterator
	offsets       []uint32
	slop          uint32
	positions     [][]uint32
}

func (p *PhraseDocIterator) DocId() index.DocumentId {
	return p.conjunction.DocId()
}

func (p *PhraseDocIterator) Next(docId index.DocumentId) bool {
	for {
		if !p.conjunction.Next(docId) {
			return false
		}

		for i, it := range p.termIterators {
			p.positions[i] = it.Positions()
		}

		if phraseMatches(p.positions, p.offsets, p.slop) {
			return true
		}

		docId = p.conjunction.DocId() + 1
	}
}

func (p *PhraseDocIterator) Score() float32 {
	return p.conjunction.Score()
}

func (p *PhraseDocIterator) Err() error {
	return p.conjunction.Err()
}

// phraseMatches reports whether one position per term can be picked, in
// strictly increasing order, such that the positions shifted back by their
// query offsets span at most slop. positions[i] must be sorted.
func phraseMatches(positions [][]uint32, offsets []uint32, slop uint32) bool {
	// The smallest shifted position of a match is one of the shifted
	// positions, so trying each of them as the window start is exhaustive.
	for i, termPositions := range positions {
		for _, position := range termPositions {
			if matchesInWindow(positions, offsets, int64(position)-int64(offsets[i]), int64(slop)) {
				return true
			}
		}
	}

	return false
}

// matchesInWindow greedily picks, term by term, the first position after the
// previous pick whose shifted value falls in [start, start+slop].
func matchesInWindow(positions [][]uint32, offsets []uint32, start, slop int64) bool {
	previous := int64(-1)

	for i, termPositions := range positions {
		lower := max(previous+1, start+int64(offsets[i]))
		upper := start + slop + int64(offsets[i])

		j := sort.Search(len(termPositions), func(k int) bool {
			return int64(termPositions[k]) >= lower
		})

		if j == len(termPositions) || int64(termPositions[j]) > upper {
			return false
		}

		previous = int64(termPositions[j])
	}

	return true
}
