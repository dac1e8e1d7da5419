package index

import (
	"cmp"
	"fmt"
	"slices"
)

// maybeMerge merges the smallest segments into one when the snapshot would
// hold more than MaxSegments. Deleted documents are purged along the way.
// The merged segment is returned with the writer reference the caller must
// release once the snapshot is published.
func (writer *IndexWriter) maybeMerge(readers []*SegmentReader) ([]*SegmentReader, *Segment, error) {
	if len(readers) <= writer.options.MaxSegments {
		return readers, nil, nil
	}

	bySize := slices.Clone(readers)
	slices.SortStableFunc(bySize, func(a, b *SegmentReader) int {
		return cmp.Compare(a.NumAliveDocs(), b.NumAliveDocs())
	})

	numToMerge := len(readers) - writer.options.MaxSegments + 1
	toMerge := bySize[:numToMerge]

	// Keep creation order so that merged doc ids follow insertion order.
	slices.SortFunc(toMerge, func(a, b *SegmentReader) int {
		return cmp.Compare(a.Id, b.Id)
	})

	segmentId := writer.nextSegmentId
	merged, err := mergeSegments(segmentId, writer.index.schema, toMerge)
	if err != nil {
		return nil, nil, fmt.Errorf("merge %d segments: %w", len(toMerge), err)
	}
	writer.nextSegmentId++

	mergedIds := make(map[uint32]struct{}, len(toMerge))
	for _, reader := range toMerge {
		mergedIds[reader.Id] = struct{}{}
	}

	result := make([]*SegmentReader, 0, writer.options.MaxSegments)
	for _, reader := range readers {
		if _, exists := mergedIds[reader.Id]; !exists {
			result = append(result, reader)
		}
	}
	result = append(result, newSegmentReader(merged, nil))

	writer.options.Metrics.OnMerge(len(toMerge))
	writer.logger.Debug("merged segments",
		"segments", len(toMerge),
		"merged_segment", segmentId,
		"docs", merged.NumDocs)

	return result, merged, nil
}

// mergeSegments rewrites the alive documents of readers into a new segment.
func mergeSegments(segmentId uint32, schema *Schema, readers []*SegmentReader) (*Segment, error) {
	invertedIndexWriter := newInvertedIndexWriter(schema)
	columnWriter := newColumnWriter(schema)

	// docIdMappings[i][oldDocId] is the new doc id, or -1 when deleted
	docIdMappings := make([][]int64, len(readers))
	newDocId := DocumentId(0)

	for i, reader := range readers {
		mapping := make([]int64, reader.NumDocs)
		docIdMappings[i] = mapping

		for oldDocId := DocumentId(0); uint32(oldDocId) < reader.NumDocs; oldDocId++ {
			if reader.IsDeleted(oldDocId) {
				mapping[oldDocId] = -1
				continue
			}

			mapping[oldDocId] = int64(newDocId)
			invertedIndexWriter.Doc(newDocId)
			columnWriter.Doc(newDocId)

			for _, field := range schema.Fields() {
				if field.IsFast() {
					columnReader, err := reader.ColumnReader(field.Name)
					if err != nil {
						return nil, err
					}
					columnWriter.set(field.Name, newDocId, columnReader.Get(oldDocId))
				}

				if field.HasNorms() {
					if fieldLengthReader := reader.FieldLengthReader(field.Name); fieldLengthReader != nil {
						fieldId := invertedIndexWriter.fieldIdFor(field.Name)
						invertedIndexWriter.setFieldLength(fieldId, newDocId, fieldLengthReader.Get(oldDocId))
					}
				}
			}

			newDocId++
		}
	}

	for _, field := range schema.Fields() {
		if !field.IsIndexed() {
			continue
		}

		invertedIndexWriter.fieldIdFor(field.Name)

		for i, reader := range readers {
			if err := mergeFieldPostings(invertedIndexWriter, reader, field.Name, docIdMappings[i]); err != nil {
				return nil, err
			}
		}
	}

	compound := newCompoundWriter()
	if err := invertedIndexWriter.Write(compound); err != nil {
		return nil, err
	}
	if err := columnWriter.Write(compound); err != nil {
		return nil, err
	}

	file, err := compound.Seal()
	if err != nil {
		return nil, err
	}

	return openSegment(segmentId, uint32(newDocId), schema, file)
}

func mergeFieldPostings(writer *InvertedIndexWriter, reader *SegmentReader, fieldName string, mapping []int64) error {
	dictionaryReader, err := reader.DictionaryReader(fieldName)
	if err != nil {
		return err
	}

	postingsReader, err := reader.PostingsReader(fieldName)
	if err != nil {
		return err
	}

	for i := 0; i < dictionaryReader.Len(); i++ {
		term, termInfo := dictionaryReader.TermAt(i)

		it, err := postingsReader.PostingsIterator(termInfo)
		if err != nil {
			return err
		}

		docId := DocumentId(0)
		for it.Next(docId) {
			oldDocId := it.DocId()
			docId = oldDocId + 1

			if int(oldDocId) >= len(mapping) || mapping[oldDocId] < 0 {
				continue
			}

			writer.appendPosting(fieldName, term, DocumentId(mapping[oldDocId]), it.TermFreq(), it.Positions())
		}

		if err := it.Err(); err != nil {
			return err
		}
	}

	return nil
}
