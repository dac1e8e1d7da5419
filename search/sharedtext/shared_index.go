package sharedtext

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// SharedIndex owns the writer and the lazily opened reader of one shared
// index, tracks the shards registered on it and commits at most once per
// commit interval from the write and query paths.
type SharedIndex struct {
	writer         *Writer
	commitInterval time.Duration
	logger         *slog.Logger

	mutex  sync.RWMutex
	reader *Reader
	shards map[uint64]struct{}
	closed bool

	commitMutex sync.Mutex
	lastCommit  atomic.Int64
}

// NewSharedIndex uses DefaultCommitInterval when commitInterval is zero. A
// negative interval commits on every TryCommit.
func NewSharedIndex(config WriterConfig, commitInterval time.Duration, opts ...Option) (*SharedIndex, error) {
	writer, err := NewWriter(config, opts...)
	if err != nil {
		return nil, err
	}

	if commitInterval == 0 {
		commitInterval = DefaultCommitInterval
	}

	s := &SharedIndex{
		writer:         writer,
		commitInterval: commitInterval,
		logger:         writer.logger,
		shards:         make(map[uint64]struct{}),
	}
	s.lastCommit.Store(time.Now().UnixNano())

	return s, nil
}

func (s *SharedIndex) Writer() *Writer {
	return s.writer
}

func (s *SharedIndex) RegisterShard(shard uint64) {
	s.mutex.Lock()
	s.shards[shard] = struct{}{}
	s.mutex.Unlock()

	s.logger.Debug("registered shard", "shard", shard)
}

// UnregisterShard forgets shard and deletes its documents.
func (s *SharedIndex) UnregisterShard(shard uint64) error {
	s.mutex.Lock()
	delete(s.shards, shard)
	s.mutex.Unlock()

	if err := s.writer.DeleteShard(shard); err != nil {
		return err
	}

	s.logger.Debug("unregistered shard", "shard", shard)

	return nil
}

func (s *SharedIndex) ShardCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.shards)
}

// AddTexts adds the valid texts of shard then commits if the interval has
// elapsed. A nil valid marks every text valid.
func (s *SharedIndex) AddTexts(shard uint64, texts []string, valid []bool, offsetBegin uint64) error {
	if err := s.writer.AddTextsWithValidity(shard, texts, valid, offsetBegin); err != nil {
		return err
	}

	return s.TryCommit()
}

// MatchQuery returns the matching local ids of shard below rowCount.
func (s *SharedIndex) MatchQuery(shard uint64, text string, minimumShouldMatch int, rowCount uint64) (*roaring.Bitmap, error) {
	reader, err := s.readerForQuery()
	if err != nil {
		return nil, err
	}

	var localIds []uint64
	if minimumShouldMatch <= 1 {
		localIds, err = reader.MatchQuery(shard, text)
	} else {
		localIds, err = reader.MatchQueryWithMinimum(shard, text, minimumShouldMatch)
	}
	if err != nil {
		return nil, err
	}

	return toBitmap(localIds, rowCount), nil
}

func (s *SharedIndex) PhraseMatchQuery(shard uint64, text string, slop uint32, rowCount uint64) (*roaring.Bitmap, error) {
	reader, err := s.readerForQuery()
	if err != nil {
		return nil, err
	}

	localIds, err := reader.PhraseMatchQuery(shard, text, slop)
	if err != nil {
		return nil, err
	}

	return toBitmap(localIds, rowCount), nil
}

func (s *SharedIndex) readerForQuery() (*Reader, error) {
	if err := s.TryCommit(); err != nil {
		return nil, err
	}

	return s.getOrCreateReader()
}

// Row ids are 32-bit.
const maxRowCount = uint64(1) << 32

// toBitmap drops the ids at or past rowCount.
func toBitmap(localIds []uint64, rowCount uint64) *roaring.Bitmap {
	rowCount = min(rowCount, maxRowCount)

	bitmap := roaring.New()
	for _, localId := range localIds {
		if localId < rowCount {
			bitmap.Add(uint32(localId))
		}
	}

	return bitmap
}

// TryCommit commits and reloads when the last commit is older than the
// commit interval.
func (s *SharedIndex) TryCommit() error {
	if time.Duration(time.Now().UnixNano()-s.lastCommit.Load()) <= s.commitInterval {
		return nil
	}

	if err := s.Commit(); err != nil {
		return err
	}

	return s.Reload()
}

func (s *SharedIndex) Commit() error {
	s.commitMutex.Lock()
	defer s.commitMutex.Unlock()

	if err := s.writer.Commit(); err != nil {
		return err
	}

	s.lastCommit.Store(time.Now().UnixNano())

	return nil
}

// Reload is a no-op until the first query opened the reader.
func (s *SharedIndex) Reload() error {
	s.mutex.RLock()
	reader := s.reader
	s.mutex.RUnlock()

	if reader == nil {
		return nil
	}

	return reader.Reload()
}

func (s *SharedIndex) getOrCreateReader() (*Reader, error) {
	s.mutex.RLock()
	reader := s.reader
	s.mutex.RUnlock()

	if reader != nil {
		return reader, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, newError(KindEngine, "open reader", ErrClosed)
	}

	if s.reader == nil {
		reader, err := s.writer.CreateReader()
		if err != nil {
			return nil, err
		}
		s.reader = reader
	}

	return s.reader, nil
}

func (s *SharedIndex) Close() error {
	s.mutex.Lock()
	reader := s.reader
	s.reader = nil
	s.closed = true
	s.mutex.Unlock()

	if reader != nil {
		if err := reader.Close(); err != nil {
			return engineError("close reader", err)
		}
	}

	return s.writer.Close()
}
