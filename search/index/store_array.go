package index

import (
	"encoding/binary"
	"fmt"

	"github.com/larose/sharedtext/search/utils"
)

type ArrayStoreWriter struct {
	writer *SectionWriter
}

func newArrayStoreWriter(compound *CompoundWriter, name string) (*ArrayStoreWriter, error) {
	writer, err := compound.Create(name)
	if err != nil {
		return nil, err
	}

	return &ArrayStoreWriter{
		writer: writer,
	}, nil
}

func (writer *ArrayStoreWriter) Append(value []byte) error {
	_, err := writer.writer.Write(value)
	return err
}

type ArrayStoreReader struct {
	data             []byte
	elementValueSize uint32
}

func newArrayStoreReader(compound *CompoundFile, name string, elementValueSize uint32) (*ArrayStoreReader, error) {
	data, exists := compound.Section(name)
	if !exists {
		return nil, fmt.Errorf("section %q not found", name)
	}

	if uint32(len(data))%elementValueSize != 0 {
		return nil, fmt.Errorf("section %q has %d bytes, not a multiple of %d", name, len(data), elementValueSize)
	}

	return &ArrayStoreReader{
		data:             data,
		elementValueSize: elementValueSize,
	}, nil
}

func (reader *ArrayStoreReader) Len() uint32 {
	return uint32(len(reader.data)) / reader.elementValueSize
}

func (reader *ArrayStoreReader) Get(position uint32) []byte {
	return reader.data[position*reader.elementValueSize : (position*reader.elementValueSize)+reader.elementValueSize]
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// Fast field columns
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

const columnValueSize = 8

func columnSectionName(fieldName string) string {
	return fieldName + ".column"
}

// ColumnWriter stores one u64 per document for every fast field. Documents
// without a value read back as zero.
type ColumnWriter struct {
	schema  *Schema
	docId   DocumentId
	numDocs uint32
	field   *FieldEntry
	// values[fieldName][docId]
	values map[string][]uint64
}

func newColumnWriter(schema *Schema) *ColumnWriter {
	values := make(map[string][]uint64)
	for _, field := range schema.Fields() {
		if field.IsFast() {
			values[field.Name] = make([]uint64, 0, 1024)
		}
	}

	return &ColumnWriter{
		schema: schema,
		values: values,
	}
}

func (writer *ColumnWriter) Doc(docId DocumentId) {
	writer.docId = docId
	if uint32(docId)+1 > writer.numDocs {
		writer.numDocs = uint32(docId) + 1
	}
}

func (writer *ColumnWriter) Field(field *FieldEntry) {
	writer.field = field
}

func (writer *ColumnWriter) Term(term []byte, position uint32) {
}

func (writer *ColumnWriter) Value(value uint64) {
	if writer.field == nil || !writer.field.IsFast() {
		return
	}

	writer.set(writer.field.Name, writer.docId, value)
}

func (writer *ColumnWriter) EndField() {
	writer.field = nil
}

func (writer *ColumnWriter) set(fieldName string, docId DocumentId, value uint64) {
	values := writer.values[fieldName]
	for uint32(len(values)) <= uint32(docId) {
		values = append(values, 0)
	}
	values[docId] = value
	writer.values[fieldName] = values
}

func (writer *ColumnWriter) Write(compound *CompoundWriter) error {
	buffer := make([]byte, columnValueSize)

	for fieldName, values := range writer.values {
		arrayStoreWriter, err := newArrayStoreWriter(compound, columnSectionName(fieldName))
		if err != nil {
			return err
		}

		for docId := uint32(0); docId < writer.numDocs; docId++ {
			value := uint64(0)
			if docId < uint32(len(values)) {
				value = values[docId]
			}

			binary.BigEndian.PutUint64(buffer, value)
			if err := arrayStoreWriter.Append(buffer); err != nil {
				return err
			}
		}
	}

	return nil
}

type ColumnReader struct {
	arrayStoreReader *ArrayStoreReader
}

func newColumnReader(compound *CompoundFile, fieldName string) (*ColumnReader, error) {
	arrayStoreReader, err := newArrayStoreReader(compound, columnSectionName(fieldName), columnValueSize)
	if err != nil {
		return nil, err
	}

	return &ColumnReader{arrayStoreReader: arrayStoreReader}, nil
}

func (reader *ColumnReader) NumDocs() uint32 {
	return reader.arrayStoreReader.Len()
}

func (reader *ColumnReader) Get(docId DocumentId) uint64 {
	return utils.BytesToUint64(reader.arrayStoreReader.Get(uint32(docId)))
}
