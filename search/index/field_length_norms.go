package index

const Bm25K1 = 1.2
const Bm25B = 0.75

// FieldLengthNorms computes the BM25 length normalization of one field for
// the documents of a segment. Without a length reader every document gets
// the plain K1 norm.
type FieldLengthNorms struct {
	fieldLengthReader *FieldLengthReader
	averageLength     float32
}

func NewFieldLengthNorms(fieldLengthReader *FieldLengthReader, averageLength float32) *FieldLengthNorms {
	return &FieldLengthNorms{
		fieldLengthReader: fieldLengthReader,
		averageLength:     averageLength,
	}
}

func (norms *FieldLengthNorms) Get(docId DocumentId) float32 {
	if norms == nil || norms.fieldLengthReader == nil || norms.averageLength == 0 {
		return Bm25K1
	}

	length := float32(norms.fieldLengthReader.Get(docId))
	return Bm25K1 * (1 - Bm25B + Bm25B*(length/norms.averageLength))
}
