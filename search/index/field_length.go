package index

import (
	"encoding/binary"
)

const fieldLengthValueSize = 4

func normsSectionName(fieldName string) string {
	return fieldName + ".norms"
}

// FieldLengthReader returns the token count of a text field per document.
// Only fields with norms enabled carry one.
type FieldLengthReader struct {
	arrayStoreReader *ArrayStoreReader
}

func newFieldLengthReader(compound *CompoundFile, fieldName string) (*FieldLengthReader, error) {
	arrayStoreReader, err := newArrayStoreReader(compound, normsSectionName(fieldName), fieldLengthValueSize)
	if err != nil {
		return nil, err
	}

	return &FieldLengthReader{arrayStoreReader: arrayStoreReader}, nil
}

func (reader *FieldLengthReader) Get(docId DocumentId) uint32 {
	if uint32(docId) >= reader.arrayStoreReader.Len() {
		return 0
	}

	return binary.BigEndian.Uint32(reader.arrayStoreReader.Get(uint32(docId)))
}

func writeFieldLengths(compound *CompoundWriter, fieldName string, lengths []uint32, numDocs uint32) error {
	arrayStoreWriter, err := newArrayStoreWriter(compound, normsSectionName(fieldName))
	if err != nil {
		return err
	}

	buffer := make([]byte, fieldLengthValueSize)
	for docId := uint32(0); docId < numDocs; docId++ {
		length := uint32(0)
		if docId < uint32(len(lengths)) {
			length = lengths[docId]
		}

		binary.BigEndian.PutUint32(buffer, length)
		if err := arrayStoreWriter.Append(buffer); err != nil {
			return err
		}
	}

	return nil
}
