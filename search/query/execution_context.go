package query

import (
	"math"

	"github.com/larose/sharedtext/search/index"
)

// ExecutionContext resolves the terms of a compiled query against the
// segments of a snapshot. It is read-only once built and shared by the
// per-segment iterators.
type ExecutionContext struct {
	scoring bool

	// segmentReaders[segmentIndex]
	segmentReaders []*index.SegmentReader

	// termInfos[segmentIndex][fieldIndex][termIndex]
	termInfos [][][]*index.TermInfo

	// termIdfs[fieldIndex][termIndex], only when scoring
	termIdfs [][]float32

	// fieldLengthNorms[segmentIndex][fieldIndex], only when scoring
	fieldLengthNorms [][]*index.FieldLengthNorms
}

func NewExecutionContext(queryContext *QueryContext, segmentReaders []*index.SegmentReader, scoring bool) (*ExecutionContext, error) {
	termInfos := make([][][]*index.TermInfo, len(segmentReaders))
	fieldStats := make([]index.FieldStats, len(queryContext.Fields))

	for i, segmentReader := range segmentReaders {
		termInfosByFieldAndTerm := make([][]*index.TermInfo, len(queryContext.Fields))
		termInfos[i] = termInfosByFieldAndTerm

		for j, field := range queryContext.Fields {
			dictionaryReader, err := segmentReader.DictionaryReader(field.name)
			if err != nil {
				return nil, err
			}

			termInfosByTerm := make([]*index.TermInfo, len(field.terms))
			for k, term := range field.terms {
				termInfosByTerm[k] = dictionaryReader.Get(term)
			}
			termInfosByFieldAndTerm[j] = termInfosByTerm

			segmentStats := segmentReader.FieldStats(field.name)
			fieldStats[j].DocCount += segmentStats.DocCount
			fieldStats[j].SumTermFreq += segmentStats.SumTermFreq
		}
	}

	context := &ExecutionContext{
		scoring:        scoring,
		segmentReaders: segmentReaders,
		termInfos:      termInfos,
	}

	if !scoring {
		return context, nil
	}

	context.termIdfs = make([][]float32, len(queryContext.Fields))
	for i, field := range queryContext.Fields {
		fieldTermIdfs := make([]float32, len(field.terms))
		context.termIdfs[i] = fieldTermIdfs

		docCount := float64(fieldStats[i].DocCount)

		for j := range field.terms {
			docFreq := float64(0)
			for k := range segmentReaders {
				if termInfo := termInfos[k][i][j]; termInfo != nil {
					docFreq += float64(termInfo.DocFreq)
				}
			}

			fieldTermIdfs[j] = float32(math.Log(1 + (docCount-docFreq+0.5)/(docFreq+0.5)))
		}
	}

	context.fieldLengthNorms = make([][]*index.FieldLengthNorms, len(segmentReaders))
	for i, segmentReader := range segmentReaders {
		norms := make([]*index.FieldLengthNorms, len(queryContext.Fields))
		for j, field := range queryContext.Fields {
			norms[j] = index.NewFieldLengthNorms(segmentReader.FieldLengthReader(field.name), fieldStats[j].AverageLength())
		}
		context.fieldLengthNorms[i] = norms
	}

	return context, nil
}

func (context *ExecutionContext) Scoring() bool {
	return context.scoring
}

// postingsIterator returns nil when the term does not occur in the segment.
func (context *ExecutionContext) postingsIterator(segmentIndex, fieldIndex, termIndex int, fieldName string) (*index.PostingsIterator, error) {
	termInfo := context.termInfos[segmentIndex][fieldIndex][termIndex]
	if termInfo == nil {
		return nil, nil
	}

	postingsReader, err := context.segmentReaders[segmentIndex].PostingsReader(fieldName)
	if err != nil {
		return nil, err
	}

	return postingsReader.PostingsIterator(termInfo)
}

func (context *ExecutionContext) idf(fieldIndex, termIndex int) float32 {
	if !context.scoring {
		return 0
	}

	return context.termIdfs[fieldIndex][termIndex]
}

func (context *ExecutionContext) norms(segmentIndex, fieldIndex int) *index.FieldLengthNorms {
	if !context.scoring {
		return nil
	}

	return context.fieldLengthNorms[segmentIndex][fieldIndex]
}
