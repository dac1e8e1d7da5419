package index

// Caller calls in order:
// - Doc()
// - Field()
// - Term() or Value()
// - ...
// - EndField()
// - Field()
// - ...
// - Doc()
// - ...
// - Write()
type SegmentComponentWriter interface {
	Doc(docId DocumentId)
	Field(field *FieldEntry)
	Term(term []byte, position uint32)
	Value(value uint64)
	EndField()
	Write(compound *CompoundWriter) error
}
