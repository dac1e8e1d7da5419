package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// deleteOperation removes every document holding term in field from the
// segments that existed when it was recorded. Segments are numbered in
// creation order, so those are exactly the segments with an id below
// segmentWatermark.
type deleteOperation struct {
	fieldName        string
	term             []byte
	segmentWatermark uint32
}

func (op *deleteOperation) appliesTo(segment *Segment) bool {
	return segment.Id < op.segmentWatermark
}

// segmentDocIdsForTerm collects the documents of segment holding term.
func segmentDocIdsForTerm(segment *Segment, fieldName string, term []byte, docIds *roaring.Bitmap) error {
	it, _, err := segment.PostingsForTerm(fieldName, term)
	if err != nil || it == nil {
		return err
	}

	docId := DocumentId(0)
	for it.Next(docId) {
		docIds.Add(uint32(it.DocId()))
		docId = it.DocId() + 1
	}

	return it.Err()
}

// applyDeletes resolves the pending operations against readers. Bitmaps are
// copied on write, so snapshots already published keep their view.
func applyDeletes(readers []*SegmentReader, ops []deleteOperation) ([]*SegmentReader, error) {
	if len(ops) == 0 {
		return readers, nil
	}

	result := make([]*SegmentReader, 0, len(readers))

	for _, reader := range readers {
		var deletedDocIds *roaring.Bitmap

		for i := range ops {
			op := &ops[i]
			if !op.appliesTo(reader.Segment) {
				continue
			}

			if deletedDocIds == nil {
				deletedDocIds = reader.DeletedDocIds.Clone()
			}

			if err := segmentDocIdsForTerm(reader.Segment, op.fieldName, op.term, deletedDocIds); err != nil {
				return nil, err
			}
		}

		if deletedDocIds == nil || deletedDocIds.GetCardinality() == reader.DeletedDocIds.GetCardinality() {
			result = append(result, reader)
			continue
		}

		result = append(result, newSegmentReader(reader.Segment, deletedDocIds))
	}

	return result, nil
}
