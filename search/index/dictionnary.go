package index

import (
	"encoding/binary"
)

type TermInfo struct {
	DocFreq             uint32
	PostingsStartOffset uint64
	PostingsEndOffset   uint64
}

const termInfoSize = 20

func dictionarySectionName(fieldName string) string {
	return fieldName + ".dictionary"
}

type DictionaryWriter struct {
	buffer   []byte
	kvWriter *KVStoreWriter
}

func newDictionaryWriter(compound *CompoundWriter, fieldName string) (*DictionaryWriter, error) {
	writer, err := newKVStoreWriter(compound, dictionarySectionName(fieldName))
	if err != nil {
		return nil, err
	}

	return &DictionaryWriter{buffer: make([]byte, termInfoSize), kvWriter: writer}, nil
}

func (writer *DictionaryWriter) Write(term []byte, termInfo *TermInfo) error {
	binary.BigEndian.PutUint32(writer.buffer, termInfo.DocFreq)
	binary.BigEndian.PutUint64(writer.buffer[4:], termInfo.PostingsStartOffset)
	binary.BigEndian.PutUint64(writer.buffer[12:], termInfo.PostingsEndOffset)
	return writer.kvWriter.Append(term, writer.buffer)
}

type DictionaryReader struct {
	kvReader *KVStoreReader
}

func newDictionaryReader(compound *CompoundFile, fieldName string) *DictionaryReader {
	return &DictionaryReader{kvReader: newKVStoreReader(compound, dictionarySectionName(fieldName))}
}

func decodeTermInfo(value []byte) *TermInfo {
	return &TermInfo{
		DocFreq:             binary.BigEndian.Uint32(value),
		PostingsStartOffset: binary.BigEndian.Uint64(value[4:]),
		PostingsEndOffset:   binary.BigEndian.Uint64(value[12:]),
	}
}

func (reader *DictionaryReader) Get(term []byte) *TermInfo {
	value := reader.kvReader.Get(term)

	if value == nil {
		return nil
	}

	return decodeTermInfo(value)
}

func (reader *DictionaryReader) Len() int {
	return reader.kvReader.Len()
}

// TermAt returns the i-th term in lexicographic order.
func (reader *DictionaryReader) TermAt(i int) ([]byte, *TermInfo) {
	term, value := reader.kvReader.At(i)
	return term, decodeTermInfo(value)
}
