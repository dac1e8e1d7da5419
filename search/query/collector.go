package query

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/larose/sharedtext/search/index"
)

// Collector turns the matches of a query into a result of type F. Every
// segment gets its own SegmentCollector, whose fruits are merged in segment
// order once all segments are searched.
type Collector[F any] interface {
	ForSegment(segmentOrdinal int, segment *index.SegmentReader) (SegmentCollector[F], error)
	RequiresScoring() bool
	MergeFruits(fruits []F) (F, error)
}

// SegmentCollector receives the live matching documents of one segment in
// ascending doc id order. It is used by a single goroutine.
type SegmentCollector[F any] interface {
	Collect(docId index.DocumentId, score float32)
	Harvest() F
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// TopNCollector
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type DocScore struct {
	// Global doc id, see index.ToGlobalDocId.
	DocId uint64
	Score float32
}

type TopNCollector struct {
	topN int
}

func NewTopNCollector(topN int) *TopNCollector {
	return &TopNCollector{topN: topN}
}

func (c *TopNCollector) ForSegment(segmentOrdinal int, segment *index.SegmentReader) (SegmentCollector[[]*DocScore], error) {
	return &TopNSegmentCollector{
		topN:      c.topN,
		segmentId: segment.Id,
		minHeap:   make(scoreHeap, 0, max(c.topN, 0)),
	}, nil
}

func (c *TopNCollector) RequiresScoring() bool {
	return true
}

// MergeFruits keeps the best topN documents, highest score first. Ties go to
// the lowest doc id.
func (c *TopNCollector) MergeFruits(fruits [][]*DocScore) ([]*DocScore, error) {
	merged := make([]*DocScore, 0, c.topN)
	for _, fruit := range fruits {
		merged = append(merged, fruit...)
	}

	slices.SortFunc(merged, func(a, b *DocScore) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.DocId, b.DocId)
	})

	if len(merged) > c.topN {
		merged = merged[:c.topN]
	}

	return merged, nil
}

type TopNSegmentCollector struct {
	topN      int
	segmentId uint32
	minHeap   scoreHeap
}

func (c *TopNSegmentCollector) Collect(docId index.DocumentId, score float32) {
	if c.topN <= 0 {
		return
	}

	docScore := &DocScore{
		DocId: index.ToGlobalDocId(c.segmentId, uint32(docId)),
		Score: score,
	}

	if c.minHeap.Len() < c.topN {
		heap.Push(&c.minHeap, docScore)
		return
	}

	// Doc ids grow within a segment, so an equal score never wins.
	if score > c.minHeap[0].Score {
		c.minHeap[0] = docScore
		heap.Fix(&c.minHeap, 0)
	}
}

func (c *TopNSegmentCollector) Harvest() []*DocScore {
	results := make([]*DocScore, c.minHeap.Len())

	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(&c.minHeap).(*DocScore)
	}

	return results
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// CountCollector
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type CountCollector struct{}

func (CountCollector) ForSegment(int, *index.SegmentReader) (SegmentCollector[uint64], error) {
	return &countSegmentCollector{}, nil
}

func (CountCollector) RequiresScoring() bool {
	return false
}

func (CountCollector) MergeFruits(fruits []uint64) (uint64, error) {
	total := uint64(0)
	for _, count := range fruits {
		total += count
	}

	return total, nil
}

type countSegmentCollector struct {
	count uint64
}

func (c *countSegmentCollector) Collect(index.DocumentId, float32) {
	c.count++
}

func (c *countSegmentCollector) Harvest() uint64 {
	return c.count
}
