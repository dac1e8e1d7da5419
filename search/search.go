package search

import (
	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/query"
	"golang.org/x/sync/errgroup"
)

// Search runs _query over every segment of searcher, one segment at a time.
func Search[F any](_query query.Node, searcher *index.Searcher, collector query.Collector[F]) (F, error) {
	return ParallelSearch(_query, searcher, collector, 1)
}

// ParallelSearch searches up to parallelism segments at once. Fruits are
// merged in segment order whatever the parallelism.
func ParallelSearch[F any](_query query.Node, searcher *index.Searcher, collector query.Collector[F], parallelism int) (F, error) {
	var zero F

	queryContext := query.NewQueryContext(searcher.Schema())

	compiledQueryNode, err := _query.Compile(queryContext)
	if err != nil {
		return zero, err
	}

	executionContext, err := query.NewExecutionContext(queryContext, searcher.SegmentReaders, collector.RequiresScoring())
	if err != nil {
		return zero, err
	}

	fruits := make([]F, len(searcher.SegmentReaders))

	var group errgroup.Group
	group.SetLimit(max(parallelism, 1))

	for i, segmentReader := range searcher.SegmentReaders {
		i, segmentReader := i, segmentReader
		group.Go(func() error {
			fruit, err := searchSegment(compiledQueryNode, executionContext, i, segmentReader, collector)
			if err != nil {
				return err
			}

			fruits[i] = fruit
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return zero, err
	}

	return collector.MergeFruits(fruits)
}

func searchSegment[F any](compiledQueryNode query.CompiledNode, executionContext *query.ExecutionContext, segmentIndex int, segmentReader *index.SegmentReader, collector query.Collector[F]) (F, error) {
	var zero F

	segmentCollector, err := collector.ForSegment(segmentIndex, segmentReader)
	if err != nil {
		return zero, err
	}

	docIterator, err := compiledQueryNode.CreateDocIterator(executionContext, segmentIndex)
	if err != nil {
		return zero, err
	}

	if docIterator == nil {
		return segmentCollector.Harvest(), nil
	}

	scoring := executionContext.Scoring()
	docId := index.DocumentId(0)

	for docIterator.Next(docId) {
		localDocId := docIterator.DocId()
		docId = localDocId + 1

		if segmentReader.IsDeleted(localDocId) {
			continue
		}

		score := float32(0)
		if scoring {
			score = docIterator.Score()
		}

		segmentCollector.Collect(localDocId, score)
	}

	if err := docIterator.Err(); err != nil {
		return zero, err
	}

	return segmentCollector.Harvest(), nil
}
