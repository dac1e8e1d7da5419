package index

import (
	"bytes"
	"encoding/binary"
)

// KVStoreWriter writes sorted key/value entries into two sections:
// <basename>.data holds [keyLength][valueLength][key][value] records and
// <basename>.index holds the offset of each record, 8 bytes each.
type KVStoreWriter struct {
	dataWriter  *SectionWriter
	indexWriter *SectionWriter
	offset      uint64
	buffer      []byte
}

func newKVStoreWriter(compound *CompoundWriter, basename string) (*KVStoreWriter, error) {
	dataWriter, err := compound.Create(basename + ".data")
	if err != nil {
		return nil, err
	}

	indexWriter, err := compound.Create(basename + ".index")
	if err != nil {
		return nil, err
	}

	return &KVStoreWriter{
		dataWriter:  dataWriter,
		indexWriter: indexWriter,
		buffer:      make([]byte, 0, 64),
	}, nil
}

// Caller is responsible to check that keys are inserted in order
func (w *KVStoreWriter) Append(key []byte, values ...[]byte) error {
	keyLength := uint32(len(key))

	var valueLength uint32

	for _, value := range values {
		valueLength += uint32(len(value))
	}

	totalLength := keyLength + valueLength + 8 // 8 bytes for both lengths

	buffer := w.buffer[:0]
	buffer = binary.BigEndian.AppendUint32(buffer, keyLength)
	buffer = binary.BigEndian.AppendUint32(buffer, valueLength)

	buffer = append(buffer, key...)
	for _, value := range values {
		buffer = append(buffer, value...)
	}
	w.buffer = buffer

	if _, err := w.dataWriter.Write(buffer); err != nil {
		return err
	}

	if _, err := w.indexWriter.Write(binary.BigEndian.AppendUint64(nil, w.offset)); err != nil {
		return err
	}

	w.offset += uint64(totalLength)

	return nil
}

type KVStoreReader struct {
	data  []byte
	index []byte
}

// A missing store reads as an empty one: a segment without any term for a
// field does not write its dictionary.
func newKVStoreReader(compound *CompoundFile, basename string) *KVStoreReader {
	data, _ := compound.Section(basename + ".data")
	index, _ := compound.Section(basename + ".index")

	return &KVStoreReader{
		data:  data,
		index: index,
	}
}

func (kv *KVStoreReader) Len() int {
	return len(kv.index) / 8
}

// At returns the i-th entry in key order.
func (kv *KVStoreReader) At(i int) ([]byte, []byte) {
	offset := binary.BigEndian.Uint64(kv.index[i*8 : (i*8)+8])
	keyLength := uint64(binary.BigEndian.Uint32(kv.data[offset : offset+4]))
	valueLength := uint64(binary.BigEndian.Uint32(kv.data[offset+4 : offset+8]))

	key := kv.data[offset+8 : offset+8+keyLength]
	value := kv.data[offset+8+keyLength : offset+8+keyLength+valueLength]

	return key, value
}

func (kv *KVStoreReader) Get(key []byte) []byte {
	numItems := kv.Len()
	if numItems == 0 {
		return nil
	}

	leftIndex := 0
	rightIndex := numItems - 1

	for leftIndex <= rightIndex {
		index := leftIndex + ((rightIndex - leftIndex) / 2)

		currentKey, value := kv.At(index)

		switch bytes.Compare(currentKey, key) {
		case -1:
			// currentKey < key, go right
			leftIndex = index + 1
		case 0:
			return value
		default:
			// currentKey > key, go left
			rightIndex = index - 1
		}
	}

	return nil
}
