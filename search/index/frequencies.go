package index

import (
	"encoding/binary"
)

const blockSize = 128

func postingsSectionName(fieldName string) string {
	return fieldName + ".postings"
}

type FieldPostingsWriter struct {
	writer        *SectionWriter
	withPositions bool
	buffer        []byte
}

func newFieldPostingsWriter(compound *CompoundWriter, fieldName string, withPositions bool) (*FieldPostingsWriter, error) {
	writer, err := compound.Create(postingsSectionName(fieldName))
	if err != nil {
		return nil, err
	}

	return &FieldPostingsWriter{
		writer:        writer,
		withPositions: withPositions,
	}, nil
}

/*
Block:
  - Header:
    - [0] num docs (byte)
    - [1] first doc id (uint32)
    - [5] last doc id (uint32)
    - [9] max term freq (uint32)
    - [13] flags (byte)
    - [14] length bytes (uint32)
  - Doc ids block (uvarint deltas)
  - Term freq block (uvarint)
  - Positions block (uvarint deltas within each doc), when flagged
*/

const headerSize = 18

const positionsFlag = 1

// WriteBlock writes at most blockSize postings. positions[i] holds the
// ascending positions of docIds[i] and is ignored when the field does not
// record positions.
func (writer *FieldPostingsWriter) WriteBlock(docIds []DocumentId, termFreqs []uint32, positions [][]uint32) (uint64, uint64, error) {
	blockStartOffset := writer.writer.Offset()

	buffer := writer.buffer[:0]

	buffer = append(buffer, byte(len(docIds)))
	buffer = binary.BigEndian.AppendUint32(buffer, uint32(docIds[0]))
	buffer = binary.BigEndian.AppendUint32(buffer, uint32(docIds[len(docIds)-1]))
	buffer = binary.BigEndian.AppendUint32(buffer, 0) // maxFreq

	flags := byte(0)
	if writer.withPositions {
		flags |= positionsFlag
	}
	buffer = append(buffer, flags)
	buffer = binary.BigEndian.AppendUint32(buffer, 0) // length

	previous := DocumentId(0)
	for i, docId := range docIds {
		if i == 0 {
			buffer = binary.AppendUvarint(buffer, uint64(docId))
		} else {
			buffer = binary.AppendUvarint(buffer, uint64(docId-previous))
		}
		previous = docId
	}

	maxFreq := uint32(0)

	for _, termFreq := range termFreqs {
		buffer = binary.AppendUvarint(buffer, uint64(termFreq))

		if termFreq > maxFreq {
			maxFreq = termFreq
		}
	}

	if writer.withPositions {
		for _, docPositions := range positions {
			previousPosition := uint32(0)
			for _, position := range docPositions {
				buffer = binary.AppendUvarint(buffer, uint64(position-previousPosition))
				previousPosition = position
			}
		}
	}

	binary.BigEndian.PutUint32(buffer[9:], maxFreq)
	binary.BigEndian.PutUint32(buffer[14:], uint32(len(buffer)))

	writer.buffer = buffer

	if _, err := writer.writer.Write(buffer); err != nil {
		return 0, 0, err
	}

	return blockStartOffset, writer.writer.Offset(), nil
}

type FieldPostingsReader struct {
	data []byte
}

func newFieldPostingsReader(compound *CompoundFile, fieldName string) *FieldPostingsReader {
	data, _ := compound.Section(postingsSectionName(fieldName))
	return &FieldPostingsReader{data: data}
}

func (reader *FieldPostingsReader) PostingsIterator(termInfo *TermInfo) (*PostingsIterator, error) {
	if termInfo.PostingsStartOffset > termInfo.PostingsEndOffset || termInfo.PostingsEndOffset > uint64(len(reader.data)) {
		return nil, ErrCorruptPostings
	}

	return newPostingsIterator(reader.data[termInfo.PostingsStartOffset:termInfo.PostingsEndOffset]), nil
}
