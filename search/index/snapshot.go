package index

// Snapshot is a committed, immutable view of the index.
type Snapshot struct {
	Generation     uint64
	SegmentReaders []*SegmentReader
}

func (snapshot *Snapshot) acquire() {
	for _, segmentReader := range snapshot.SegmentReaders {
		segmentReader.IncRef()
	}
}

func (snapshot *Snapshot) release() {
	for _, segmentReader := range snapshot.SegmentReaders {
		segmentReader.DecRef()
	}
}

func (snapshot *Snapshot) NumDocs() uint64 {
	var numDocs uint64
	for _, segmentReader := range snapshot.SegmentReaders {
		numDocs += uint64(segmentReader.NumAliveDocs())
	}

	return numDocs
}

func ToGlobalDocId(segmentId, localDocId uint32) uint64 {
	globalDocId := uint64(segmentId)<<32 | uint64(localDocId)
	return globalDocId
}

func ToSegmentId(docId uint64) uint32 {
	return uint32(docId >> 32)
}

func toLocalDocId(docId uint64) DocumentId {
	return DocumentId(uint32(docId))
}
