package index

import (
	"sync"
)

// IndexReader pins a committed snapshot until Reload or Close. Queries go
// through a Searcher, which holds its own reference, so a Reload running
// concurrently with a query never pulls segments from under it.
type IndexReader struct {
	index *Index

	mutex    sync.RWMutex
	snapshot *Snapshot
	closed   bool
}

func newIndexReader(index *Index, snapshot *Snapshot) *IndexReader {
	return &IndexReader{
		index:    index,
		snapshot: snapshot,
	}
}

func (reader *IndexReader) Index() *Index {
	return reader.index
}

// Reload moves the reader to the latest committed snapshot.
func (reader *IndexReader) Reload() error {
	latest := reader.index.acquireLatest()

	reader.mutex.Lock()
	if reader.closed {
		reader.mutex.Unlock()
		latest.release()
		return ErrReaderClosed
	}

	previous := reader.snapshot
	reader.snapshot = latest
	reader.mutex.Unlock()

	previous.release()

	return nil
}

func (reader *IndexReader) Generation() uint64 {
	reader.mutex.RLock()
	defer reader.mutex.RUnlock()

	return reader.snapshot.Generation
}

// Searcher returns the current snapshot. The caller must Close it.
func (reader *IndexReader) Searcher() (*Searcher, error) {
	reader.mutex.RLock()
	defer reader.mutex.RUnlock()

	if reader.closed {
		return nil, ErrReaderClosed
	}

	reader.snapshot.acquire()

	return &Searcher{Snapshot: reader.snapshot, schema: reader.index.schema}, nil
}

func (reader *IndexReader) Close() error {
	reader.mutex.Lock()
	defer reader.mutex.Unlock()

	if reader.closed {
		return nil
	}

	reader.closed = true
	reader.snapshot.release()

	return nil
}

type Searcher struct {
	*Snapshot
	schema *Schema
	once   sync.Once
}

func (searcher *Searcher) Schema() *Schema {
	return searcher.schema
}

func (searcher *Searcher) Close() {
	searcher.once.Do(searcher.Snapshot.release)
}

// Value reads a fast field of a document addressed by its global doc id.
func (searcher *Searcher) Value(fieldName string, docId uint64) (uint64, bool, error) {
	segmentId := ToSegmentId(docId)
	localDocId := toLocalDocId(docId)

	for _, segmentReader := range searcher.SegmentReaders {
		if segmentReader.Id != segmentId {
			continue
		}

		columnReader, err := segmentReader.ColumnReader(fieldName)
		if err != nil {
			return 0, false, err
		}

		if uint32(localDocId) >= columnReader.NumDocs() {
			return 0, false, nil
		}

		return columnReader.Get(localDocId), true, nil
	}

	return 0, false, nil
}
