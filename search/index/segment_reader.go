package index

import (
	"log/slog"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// Segment is an immutable physical partition of the index. Its bytes live in
// a CompoundFile that is unmapped when the last reference is released.
// References are held by the writer (until commit), by the index for its
// latest snapshot and by every reader and searcher pinning a snapshot.
type Segment struct {
	Id      uint32
	NumDocs uint32

	schema   *Schema
	compound *CompoundFile
	refs     atomic.Int32

	dictionaryReaders  map[string]*DictionaryReader
	postingsReaders    map[string]*FieldPostingsReader
	columnReaders      map[string]*ColumnReader
	fieldLengthReaders map[string]*FieldLengthReader
	fieldStats         map[string]FieldStats
}

// openSegment takes ownership of compound. The returned segment holds one
// reference owned by the caller.
func openSegment(id, numDocs uint32, schema *Schema, compound *CompoundFile) (*Segment, error) {
	segment := &Segment{
		Id:                 id,
		NumDocs:            numDocs,
		schema:             schema,
		compound:           compound,
		dictionaryReaders:  make(map[string]*DictionaryReader),
		postingsReaders:    make(map[string]*FieldPostingsReader),
		columnReaders:      make(map[string]*ColumnReader),
		fieldLengthReaders: make(map[string]*FieldLengthReader),
		fieldStats:         make(map[string]FieldStats),
	}

	for _, field := range schema.Fields() {
		if field.IsIndexed() {
			segment.dictionaryReaders[field.Name] = newDictionaryReader(compound, field.Name)
			segment.postingsReaders[field.Name] = newFieldPostingsReader(compound, field.Name)
			segment.fieldStats[field.Name] = readFieldStats(compound, field.Name)
		}

		if field.IsFast() {
			columnReader, err := newColumnReader(compound, field.Name)
			if err != nil {
				_ = compound.Close()
				return nil, err
			}
			segment.columnReaders[field.Name] = columnReader
		}

		if field.HasNorms() {
			if _, exists := compound.Section(normsSectionName(field.Name)); exists {
				fieldLengthReader, err := newFieldLengthReader(compound, field.Name)
				if err != nil {
					_ = compound.Close()
					return nil, err
				}
				segment.fieldLengthReaders[field.Name] = fieldLengthReader
			}
		}
	}

	segment.refs.Store(1)

	return segment, nil
}

func (segment *Segment) IncRef() {
	if segment.refs.Add(1) <= 1 {
		panic("segment resurrected after release")
	}
}

func (segment *Segment) DecRef() {
	refs := segment.refs.Add(-1)
	if refs > 0 {
		return
	}

	if refs < 0 {
		panic("segment released too many times")
	}

	if err := segment.compound.Close(); err != nil {
		slog.Default().Warn("failed to unmap segment", "segment", segment.Id, "error", err)
	}
}

func (segment *Segment) SizeInBytes() int {
	return segment.compound.Size()
}

func (segment *Segment) Schema() *Schema {
	return segment.schema
}

func (segment *Segment) DictionaryReader(fieldName string) (*DictionaryReader, error) {
	dictionaryReader, exists := segment.dictionaryReaders[fieldName]
	if !exists {
		return nil, &FieldError{Field: fieldName, Err: ErrFieldNotFound}
	}

	return dictionaryReader, nil
}

func (segment *Segment) PostingsReader(fieldName string) (*FieldPostingsReader, error) {
	postingsReader, exists := segment.postingsReaders[fieldName]
	if !exists {
		return nil, &FieldError{Field: fieldName, Err: ErrFieldNotFound}
	}

	return postingsReader, nil
}

func (segment *Segment) ColumnReader(fieldName string) (*ColumnReader, error) {
	columnReader, exists := segment.columnReaders[fieldName]
	if !exists {
		return nil, &FieldError{Field: fieldName, Err: ErrColumnNotFound}
	}

	return columnReader, nil
}

// FieldLengthReader returns nil when the field has no norms.
func (segment *Segment) FieldLengthReader(fieldName string) *FieldLengthReader {
	return segment.fieldLengthReaders[fieldName]
}

func (segment *Segment) FieldStats(fieldName string) FieldStats {
	return segment.fieldStats[fieldName]
}

// PostingsForTerm returns nil, nil when the term does not occur in the segment.
func (segment *Segment) PostingsForTerm(fieldName string, term []byte) (*PostingsIterator, *TermInfo, error) {
	dictionaryReader, err := segment.DictionaryReader(fieldName)
	if err != nil {
		return nil, nil, err
	}

	termInfo := dictionaryReader.Get(term)
	if termInfo == nil {
		return nil, nil, nil
	}

	postingsReader, err := segment.PostingsReader(fieldName)
	if err != nil {
		return nil, nil, err
	}

	it, err := postingsReader.PostingsIterator(termInfo)
	if err != nil {
		return nil, nil, err
	}

	return it, termInfo, nil
}

// SegmentReader is a segment as seen by one snapshot: the shared segment
// bytes plus the documents deleted as of that snapshot.
type SegmentReader struct {
	*Segment
	DeletedDocIds *roaring.Bitmap
}

func newSegmentReader(segment *Segment, deletedDocIds *roaring.Bitmap) *SegmentReader {
	if deletedDocIds == nil {
		deletedDocIds = roaring.NewBitmap()
	}

	return &SegmentReader{
		Segment:       segment,
		DeletedDocIds: deletedDocIds,
	}
}

func (reader *SegmentReader) NumAliveDocs() uint32 {
	return reader.NumDocs - uint32(reader.DeletedDocIds.GetCardinality())
}

func (reader *SegmentReader) IsDeleted(docId DocumentId) bool {
	return reader.DeletedDocIds.Contains(uint32(docId))
}
