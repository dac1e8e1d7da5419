package index

import (
	"slices"
)

type Posting struct {
	docId     DocumentId
	positions []uint32
}

type InvertedIndexWriter struct {
	schema  *Schema
	docId   DocumentId
	numDocs uint32
	field   *FieldEntry
	fieldId int
	// tokens seen in the current field value
	fieldLength uint32

	fieldIds   map[string]int
	fieldNames []string
	// postings[fieldId][term], in doc id order
	postings []map[string][]*Posting

	// fieldLengths[fieldId][docId], only for fields with norms
	fieldLengths [][]uint32
}

func newInvertedIndexWriter(schema *Schema) *InvertedIndexWriter {
	return &InvertedIndexWriter{
		schema:       schema,
		fieldIds:     make(map[string]int),
		fieldNames:   make([]string, 0, 5),
		postings:     make([]map[string][]*Posting, 0, 5),
		fieldLengths: make([][]uint32, 0, 5),
	}
}

func (w *InvertedIndexWriter) Doc(docId DocumentId) {
	w.docId = docId
	if uint32(docId)+1 > w.numDocs {
		w.numDocs = uint32(docId) + 1
	}
}

func (w *InvertedIndexWriter) fieldIdFor(fieldName string) int {
	fieldId, exists := w.fieldIds[fieldName]
	if !exists {
		fieldId = len(w.fieldIds)
		w.fieldNames = append(w.fieldNames, fieldName)
		w.fieldIds[fieldName] = fieldId
		w.postings = append(w.postings, make(map[string][]*Posting))
		w.fieldLengths = append(w.fieldLengths, nil)
	}

	return fieldId
}

func (w *InvertedIndexWriter) Field(field *FieldEntry) {
	w.fieldLength = 0

	if !field.IsIndexed() {
		w.field = nil
		return
	}

	w.field = field
	w.fieldId = w.fieldIdFor(field.Name)
}

func (w *InvertedIndexWriter) Term(term []byte, position uint32) {
	if w.field == nil {
		return
	}

	w.fieldLength++
	w.appendPosition(w.fieldId, string(term), w.docId, position)
}

func (w *InvertedIndexWriter) Value(value uint64) {
}

func (w *InvertedIndexWriter) EndField() {
	if w.field != nil && w.field.HasNorms() {
		w.setFieldLength(w.fieldId, w.docId, w.fieldLength)
	}

	w.field = nil
}

func (w *InvertedIndexWriter) appendPosition(fieldId int, term string, docId DocumentId, position uint32) {
	termPostings := w.postings[fieldId][term]

	if n := len(termPostings); n > 0 && termPostings[n-1].docId == docId {
		termPostings[n-1].positions = append(termPostings[n-1].positions, position)
		return
	}

	w.postings[fieldId][term] = append(termPostings, &Posting{docId: docId, positions: []uint32{position}})
}

// appendPosting adds the postings of a whole document at once. Used by the
// merger, which feeds terms in doc id order.
func (w *InvertedIndexWriter) appendPosting(fieldName string, term []byte, docId DocumentId, termFreq uint32, positions []uint32) {
	fieldId := w.fieldIdFor(fieldName)
	termString := string(term)

	var copied []uint32
	if len(positions) > 0 {
		copied = slices.Clone(positions)
	} else {
		// Fields without positions still need their term frequency.
		copied = make([]uint32, termFreq)
	}

	w.postings[fieldId][termString] = append(w.postings[fieldId][termString], &Posting{docId: docId, positions: copied})
}

func (w *InvertedIndexWriter) setFieldLength(fieldId int, docId DocumentId, length uint32) {
	lengths := w.fieldLengths[fieldId]
	for uint32(len(lengths)) <= uint32(docId) {
		lengths = append(lengths, 0)
	}
	lengths[docId] = length
	w.fieldLengths[fieldId] = lengths
}

func (w *InvertedIndexWriter) Write(compound *CompoundWriter) error {
	termDocIds := make([]DocumentId, 0, blockSize)
	termFreqs := make([]uint32, 0, blockSize)
	termPositions := make([][]uint32, 0, blockSize)
	termInfo := &TermInfo{}

	for fieldId, fieldPostings := range w.postings {
		fieldName := w.fieldNames[fieldId]
		field, exists := w.schema.Field(fieldName)
		if !exists {
			return &FieldError{Field: fieldName, Err: ErrFieldNotFound}
		}

		postingsWriter, err := newFieldPostingsWriter(compound, fieldName, field.HasPositions())
		if err != nil {
			return err
		}

		dictWriter, err := newDictionaryWriter(compound, fieldName)
		if err != nil {
			return err
		}

		sortedTerms := make([]string, 0, len(fieldPostings))
		for term := range fieldPostings {
			sortedTerms = append(sortedTerms, term)
		}
		slices.Sort(sortedTerms)

		var stats FieldStats
		fieldDocs := make(map[DocumentId]struct{})

		for _, term := range sortedTerms {
			termPostings := fieldPostings[term]

			firstOffset := uint64(0)
			endOffset := uint64(0)

			for i := 0; i < len(termPostings); i += blockSize {
				end := min(i+blockSize, len(termPostings))

				termDocIds = termDocIds[:0]
				termFreqs = termFreqs[:0]
				termPositions = termPositions[:0]

				for _, posting := range termPostings[i:end] {
					termDocIds = append(termDocIds, posting.docId)
					termFreqs = append(termFreqs, uint32(len(posting.positions)))
					termPositions = append(termPositions, posting.positions)

					stats.SumTermFreq += uint64(len(posting.positions))
					fieldDocs[posting.docId] = struct{}{}
				}

				startOffset, _endOffset, err := postingsWriter.WriteBlock(termDocIds, termFreqs, termPositions)
				if err != nil {
					return err
				}

				if i == 0 {
					firstOffset = startOffset
				}

				endOffset = _endOffset
			}

			termInfo.DocFreq = uint32(len(termPostings))
			termInfo.PostingsStartOffset = firstOffset
			termInfo.PostingsEndOffset = endOffset

			if err := dictWriter.Write([]byte(term), termInfo); err != nil {
				return err
			}
		}

		stats.DocCount = uint32(len(fieldDocs))
		if err := writeFieldStats(compound, fieldName, stats); err != nil {
			return err
		}

		if field.HasNorms() {
			if err := writeFieldLengths(compound, fieldName, w.fieldLengths[fieldId], w.numDocs); err != nil {
				return err
			}
		}
	}

	return nil
}
