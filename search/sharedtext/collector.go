package sharedtext

import (
	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/query"
)

// localIdCollector reads the local id column of every match. Nothing is
// scored and ids come out in segment order, not sorted.
type localIdCollector struct {
	fieldName string
}

func (c localIdCollector) ForSegment(segmentOrdinal int, segment *index.SegmentReader) (query.SegmentCollector[[]uint64], error) {
	column, err := segment.ColumnReader(c.fieldName)
	if err != nil {
		return nil, err
	}

	return &localIdSegmentCollector{column: column}, nil
}

func (c localIdCollector) RequiresScoring() bool {
	return false
}

func (c localIdCollector) MergeFruits(fruits [][]uint64) ([]uint64, error) {
	size := 0
	for _, fruit := range fruits {
		size += len(fruit)
	}

	merged := make([]uint64, 0, size)
	for _, fruit := range fruits {
		merged = append(merged, fruit...)
	}

	return merged, nil
}

type localIdSegmentCollector struct {
	column   *index.ColumnReader
	localIds []uint64
}

func (c *localIdSegmentCollector) Collect(docId index.DocumentId, _ float32) {
	c.localIds = append(c.localIds, c.column.Get(docId))
}

func (c *localIdSegmentCollector) Harvest() []uint64 {
	return c.localIds
}
