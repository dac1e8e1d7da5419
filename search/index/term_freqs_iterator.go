package index

import (
	"encoding/binary"
)

// PostingsIterator walks the postings of one term, block by block.
// Positions are decoded together with the block data.
type PostingsIterator struct {
	data   []byte
	offset int

	// Block header
	blockHeaderDecoded bool
	numDocs            int
	firstDocId         DocumentId
	LastDocId          DocumentId
	maxFreq            uint32
	withPositions      bool
	nextBlockOffset    int

	// Block data
	blockDataDecoded bool
	indexInBlockId   int
	blockDocIds      []DocumentId
	blockFreqs       []uint32
	blockPositions   []uint32
	positionStarts   []int

	exhausted bool
	err       error
}

func newPostingsIterator(data []byte) *PostingsIterator {
	return &PostingsIterator{
		data:           data,
		indexInBlockId: -1,
		blockDocIds:    make([]DocumentId, 0, blockSize),
		blockFreqs:     make([]uint32, 0, blockSize),
		positionStarts: make([]int, 0, blockSize+1),
	}
}

// Next moves to the first document greater than or equal to docId.
func (it *PostingsIterator) Next(docId DocumentId) bool {
	for {
		if !it.NextShallow(docId) {
			return false
		}

		if !it.blockDataDecoded && !it.decodeBlockData() {
			return false
		}

		for ; it.indexInBlockId < len(it.blockDocIds); it.indexInBlockId++ {
			if docId <= it.blockDocIds[it.indexInBlockId] {
				return true
			}
		}

		docId = it.LastDocId + 1
	}
}

// NextShallow moves to the block that may contain docId without decoding it.
func (it *PostingsIterator) NextShallow(docId DocumentId) bool {
	for {
		if it.exhausted {
			return false
		}

		if !it.blockHeaderDecoded {
			if it.offset >= len(it.data) {
				it.exhausted = true
				return false
			}

			if !it.decodeHeader() {
				return false
			}
		}

		if docId <= it.LastDocId {
			return true
		}

		it.offset = it.nextBlockOffset
		it.blockHeaderDecoded = false
	}
}

func (it *PostingsIterator) fail(err error) bool {
	it.err = err
	it.exhausted = true
	return false
}

func (it *PostingsIterator) decodeHeader() bool {
	if len(it.data)-it.offset < headerSize {
		return it.fail(ErrCorruptPostings)
	}

	header := it.data[it.offset : it.offset+headerSize]

	it.numDocs = int(header[0])
	it.firstDocId = DocumentId(binary.BigEndian.Uint32(header[1:]))
	it.LastDocId = DocumentId(binary.BigEndian.Uint32(header[5:]))
	it.maxFreq = binary.BigEndian.Uint32(header[9:])
	it.withPositions = header[13]&positionsFlag != 0
	length := int(binary.BigEndian.Uint32(header[14:]))

	if it.numDocs == 0 || it.numDocs > blockSize || length < headerSize || it.offset+length > len(it.data) {
		return it.fail(ErrCorruptPostings)
	}

	it.nextBlockOffset = it.offset + length
	it.blockHeaderDecoded = true
	it.blockDataDecoded = false
	it.indexInBlockId = -1

	return true
}

func (it *PostingsIterator) decodeBlockData() bool {
	block := it.data[it.offset+headerSize : it.nextBlockOffset]
	position := 0

	readUvarint := func() (uint64, bool) {
		value, n := binary.Uvarint(block[position:])
		if n <= 0 {
			return 0, false
		}
		position += n
		return value, true
	}

	it.blockDocIds = it.blockDocIds[:it.numDocs]
	it.blockFreqs = it.blockFreqs[:it.numDocs]

	for i := 0; i < it.numDocs; i++ {
		value, ok := readUvarint()
		if !ok {
			return it.fail(ErrCorruptPostings)
		}

		if i == 0 {
			it.blockDocIds[i] = DocumentId(value)
		} else {
			it.blockDocIds[i] = it.blockDocIds[i-1] + DocumentId(value)
		}
	}

	for i := 0; i < it.numDocs; i++ {
		value, ok := readUvarint()
		if !ok {
			return it.fail(ErrCorruptPostings)
		}

		it.blockFreqs[i] = uint32(value)
	}

	it.positionStarts = it.positionStarts[:0]
	it.blockPositions = it.blockPositions[:0]

	if it.withPositions {
		for i := 0; i < it.numDocs; i++ {
			it.positionStarts = append(it.positionStarts, len(it.blockPositions))

			previous := uint32(0)
			for j := uint32(0); j < it.blockFreqs[i]; j++ {
				value, ok := readUvarint()
				if !ok {
					return it.fail(ErrCorruptPostings)
				}

				previous += uint32(value)
				it.blockPositions = append(it.blockPositions, previous)
			}
		}
		it.positionStarts = append(it.positionStarts, len(it.blockPositions))
	}

	it.indexInBlockId = 0
	it.blockDataDecoded = true

	return true
}

func (it *PostingsIterator) DocId() DocumentId {
	if it.indexInBlockId != -1 {
		return it.blockDocIds[it.indexInBlockId]
	}

	return it.firstDocId
}

func (it *PostingsIterator) TermFreq() uint32 {
	return it.blockFreqs[it.indexInBlockId]
}

// Positions returns the ascending positions of the current document, or nil
// when the field does not record positions. Valid until the next call to Next.
func (it *PostingsIterator) Positions() []uint32 {
	if !it.withPositions {
		return nil
	}

	return it.blockPositions[it.positionStarts[it.indexInBlockId]:it.positionStarts[it.indexInBlockId+1]]
}

func (it *PostingsIterator) BlockMaxFreq() uint32 {
	return it.maxFreq
}

func (it *PostingsIterator) Err() error {
	return it.err
}
