package index

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/larose/sharedtext/search/utils"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNumThreads   = 1
	DefaultMemoryBudget = 50 * 1024 * 1024
	DefaultMaxSegments  = 8

	// A flush never cuts the buffer into segments smaller than this.
	minDocsPerSegment = 256
)

// MetricsCollector observes writer activity.
type MetricsCollector interface {
	OnFlush(docs int, segments int)
	OnMerge(segments int)
	OnCommit(segments int, duration time.Duration, err error)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) OnFlush(int, int)                   {}
func (NoopMetricsCollector) OnMerge(int)                        {}
func (NoopMetricsCollector) OnCommit(int, time.Duration, error) {}

type IndexWriterOptions struct {
	// Size of the worker pool building segments on flush.
	NumThreads int
	// Buffered documents are flushed into segments once their estimated
	// size reaches this many bytes.
	MemoryBudget int
	// Commit merges segments once there are more than this many.
	MaxSegments int
	Logger      *slog.Logger
	Metrics     MetricsCollector
}

func (options IndexWriterOptions) withDefaults() IndexWriterOptions {
	if options.NumThreads <= 0 {
		options.NumThreads = DefaultNumThreads
	}
	if options.MemoryBudget <= 0 {
		options.MemoryBudget = DefaultMemoryBudget
	}
	if options.MaxSegments <= 0 {
		options.MaxSegments = DefaultMaxSegments
	}
	if options.Logger == nil {
		options.Logger = slog.Default().With("component", "index_writer")
	}
	if options.Metrics == nil {
		options.Metrics = NoopMetricsCollector{}
	}
	return options
}

// IndexWriter buffers documents, flushes them into segments and publishes
// snapshots on Commit. Calls are serialized; their order is the order in
// which they take effect.
type IndexWriter struct {
	index   *Index
	options IndexWriterOptions
	logger  *slog.Logger

	mutex  sync.Mutex
	closed bool

	buffer        []Document
	bufferBytes   int
	nextSegmentId uint32
	// flushed since the last commit, each holding one writer reference
	pending []*Segment
	deletes []deleteOperation
	opstamp uint64
}

func newIndexWriter(index *Index, nextSegmentId uint32, options IndexWriterOptions) *IndexWriter {
	options = options.withDefaults()

	return &IndexWriter{
		index:         index,
		options:       options,
		logger:        options.Logger,
		buffer:        make([]Document, 0, 1024),
		nextSegmentId: nextSegmentId,
	}
}

func (writer *IndexWriter) validate(doc Document) error {
	for _, field := range doc {
		entry, exists := writer.index.schema.Field(field.Name)
		if !exists {
			return &FieldError{Field: field.Name, Err: ErrFieldNotFound}
		}

		if entry.Type != field.FieldType {
			return &FieldError{Field: field.Name, Err: fmt.Errorf("%w: schema has %s, document has %s", ErrFieldTypeMismatch, entry.Type, field.FieldType)}
		}

		if entry.Type == TextFieldType {
			if _, exists := writer.index.tokenizers.Get(entry.Text.Tokenizer); !exists {
				return &FieldError{Field: field.Name, Err: fmt.Errorf("%w: %q", ErrTokenizerNotFound, entry.Text.Tokenizer)}
			}
		}
	}

	return nil
}

// AddDocument buffers doc and returns its opstamp. The document becomes
// visible after the next Commit and a reader Reload. When the flush it
// triggers fails, doc is not kept.
func (writer *IndexWriter) AddDocument(doc Document) (uint64, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	if writer.closed {
		return 0, ErrWriterClosed
	}

	if err := writer.validate(doc); err != nil {
		return 0, err
	}

	size := doc.sizeInBytes()

	writer.buffer = append(writer.buffer, doc)
	writer.bufferBytes += size
	writer.opstamp++

	if writer.bufferBytes >= writer.options.MemoryBudget {
		if err := writer.flush(); err != nil {
			// doc leaves the buffer. Earlier documents stay buffered.
			writer.buffer[len(writer.buffer)-1] = nil
			writer.buffer = writer.buffer[:len(writer.buffer)-1]
			writer.bufferBytes -= size
			writer.opstamp--
			return 0, err
		}
	}

	return writer.opstamp, nil
}

// DeleteTerm deletes every document added before this call that holds term
// in fieldName. Buffered documents are dropped right away, segments are
// updated on the next Commit.
func (writer *IndexWriter) DeleteTerm(fieldName string, term []byte) (uint64, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	if writer.closed {
		return 0, ErrWriterClosed
	}

	entry, exists := writer.index.schema.Field(fieldName)
	if !exists || !entry.IsIndexed() {
		return 0, &FieldError{Field: fieldName, Err: ErrFieldNotFound}
	}

	kept := writer.buffer[:0]
	keptBytes := 0
	for _, doc := range writer.buffer {
		matches, err := writer.documentHasTerm(doc, entry, term)
		if err != nil {
			return 0, err
		}

		if !matches {
			kept = append(kept, doc)
			keptBytes += doc.sizeInBytes()
		}
	}
	clear(writer.buffer[len(kept):])
	writer.buffer = kept
	writer.bufferBytes = keptBytes

	writer.deletes = append(writer.deletes, deleteOperation{
		fieldName:        fieldName,
		term:             bytes.Clone(term),
		segmentWatermark: writer.nextSegmentId,
	})
	writer.opstamp++

	return writer.opstamp, nil
}

func (writer *IndexWriter) documentHasTerm(doc Document, entry *FieldEntry, term []byte) (bool, error) {
	for _, field := range doc {
		if field.Name != entry.Name {
			continue
		}

		switch entry.Type {
		case U64FieldType:
			if bytes.Equal(utils.Uint64ToBytes(field.U64), term) {
				return true, nil
			}
		case TextFieldType:
			a, exists := writer.index.tokenizers.Get(entry.Text.Tokenizer)
			if !exists {
				return false, &FieldError{Field: entry.Name, Err: ErrTokenizerNotFound}
			}

			// Filters may rewrite terms in place, the buffered text must stay intact.
			for _, token := range a.Analyze(bytes.Clone(field.Value)) {
				if bytes.Equal(token.Term, term) {
					return true, nil
				}
			}
		}
	}

	return false, nil
}

// Commit flushes the buffer, applies pending deletes, merges segments when
// there are too many and publishes a new snapshot.
func (writer *IndexWriter) Commit() (uint64, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	if writer.closed {
		return 0, ErrWriterClosed
	}

	start := time.Now()
	segments, err := writer.commit()
	writer.options.Metrics.OnCommit(segments, time.Since(start), err)
	if err != nil {
		return 0, err
	}

	return writer.opstamp, nil
}

func (writer *IndexWriter) commit() (int, error) {
	if err := writer.flush(); err != nil {
		return 0, err
	}

	latest := writer.index.acquireLatest()
	defer latest.release()

	readers := make([]*SegmentReader, 0, len(latest.SegmentReaders)+len(writer.pending))
	readers = append(readers, latest.SegmentReaders...)
	for _, segment := range writer.pending {
		readers = append(readers, newSegmentReader(segment, nil))
	}

	readers, err := applyDeletes(readers, writer.deletes)
	if err != nil {
		return 0, err
	}

	alive := readers[:0]
	for _, reader := range readers {
		if reader.NumAliveDocs() > 0 {
			alive = append(alive, reader)
		}
	}
	readers = alive

	var merged *Segment
	readers, merged, err = writer.maybeMerge(readers)
	if err != nil {
		return 0, err
	}

	snapshot := &Snapshot{
		Generation:     latest.Generation + 1,
		SegmentReaders: readers,
	}
	writer.index.publish(snapshot)

	for _, segment := range writer.pending {
		segment.DecRef()
	}
	if merged != nil {
		merged.DecRef()
	}

	writer.pending = writer.pending[:0]
	writer.deletes = writer.deletes[:0]
	writer.opstamp++

	writer.logger.Debug("committed",
		"generation", snapshot.Generation,
		"segments", len(snapshot.SegmentReaders),
		"docs", snapshot.NumDocs())

	return len(snapshot.SegmentReaders), nil
}

// flush builds segments out of the buffered documents on the worker pool.
func (writer *IndexWriter) flush() error {
	if len(writer.buffer) == 0 {
		return nil
	}

	numChunks := min(writer.options.NumThreads, (len(writer.buffer)+minDocsPerSegment-1)/minDocsPerSegment)
	numChunks = max(numChunks, 1)
	chunkSize := (len(writer.buffer) + numChunks - 1) / numChunks

	segments := make([]*Segment, numChunks)

	var group errgroup.Group
	group.SetLimit(writer.options.NumThreads)

	for i := 0; i < numChunks; i++ {
		i := i
		docs := writer.buffer[i*chunkSize : min((i+1)*chunkSize, len(writer.buffer))]
		segmentId := writer.nextSegmentId + uint32(i)

		group.Go(func() error {
			segment, err := buildSegment(segmentId, writer.index.schema, writer.index.tokenizers, docs)
			if err != nil {
				return err
			}

			segments[i] = segment
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		for _, segment := range segments {
			if segment != nil {
				segment.DecRef()
			}
		}

		return fmt.Errorf("flush %d documents: %w", len(writer.buffer), err)
	}

	writer.nextSegmentId += uint32(numChunks)
	writer.pending = append(writer.pending, segments...)
	writer.options.Metrics.OnFlush(len(writer.buffer), numChunks)

	writer.logger.Debug("flushed",
		"docs", len(writer.buffer),
		"bytes", writer.bufferBytes,
		"segments", numChunks)

	clear(writer.buffer)
	writer.buffer = writer.buffer[:0]
	writer.bufferBytes = 0

	return nil
}

func buildSegment(segmentId uint32, schema *Schema, tokenizers *TokenizerManager, docs []Document) (*Segment, error) {
	segmentComponentWriters := []SegmentComponentWriter{newInvertedIndexWriter(schema), newColumnWriter(schema)}

	// Repeated text fields in a document continue the positions of the
	// previous value.
	positionOffsets := make(map[string]uint32)

	for docId, doc := range docs {
		for _, segmentComponentWriter := range segmentComponentWriters {
			segmentComponentWriter.Doc(DocumentId(docId))
		}
		clear(positionOffsets)

		for _, field := range doc {
			entry, exists := schema.Field(field.Name)
			if !exists {
				return nil, &FieldError{Field: field.Name, Err: ErrFieldNotFound}
			}

			for _, segmentComponentWriter := range segmentComponentWriters {
				segmentComponentWriter.Field(entry)
			}

			switch entry.Type {
			case TextFieldType:
				a, exists := tokenizers.Get(entry.Text.Tokenizer)
				if !exists {
					return nil, &FieldError{Field: field.Name, Err: ErrTokenizerNotFound}
				}

				positionOffset := positionOffsets[field.Name]
				last := uint32(0)
				for _, token := range a.Analyze(bytes.Clone(field.Value)) {
					position := positionOffset + tokenPosition(token)
					last = position + 1
					for _, segmentComponentWriter := range segmentComponentWriters {
						segmentComponentWriter.Term(token.Term, position)
					}
				}
				positionOffsets[field.Name] = max(positionOffset, last)
			case U64FieldType:
				if entry.Numeric.Indexed {
					term := utils.Uint64ToBytes(field.U64)
					for _, segmentComponentWriter := range segmentComponentWriters {
						segmentComponentWriter.Term(term, 0)
					}
				}

				for _, segmentComponentWriter := range segmentComponentWriters {
					segmentComponentWriter.Value(field.U64)
				}
			default:
				return nil, &FieldError{Field: field.Name, Err: fmt.Errorf("unknown field type %d", field.FieldType)}
			}

			for _, segmentComponentWriter := range segmentComponentWriters {
				segmentComponentWriter.EndField()
			}
		}
	}

	compound := newCompoundWriter()
	for _, segmentComponentWriter := range segmentComponentWriters {
		if err := segmentComponentWriter.Write(compound); err != nil {
			return nil, err
		}
	}

	file, err := compound.Seal()
	if err != nil {
		return nil, err
	}

	return openSegment(segmentId, uint32(len(docs)), schema, file)
}

// Analyzer positions are 1-based.
func tokenPosition(token *analysis.Token) uint32 {
	if token.Position <= 0 {
		return 0
	}

	return uint32(token.Position - 1)
}

// Close drops buffered documents and uncommitted segments. Committed data
// stays readable through existing and future readers.
func (writer *IndexWriter) Close() error {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	if writer.closed {
		return nil
	}

	writer.closed = true

	for _, segment := range writer.pending {
		segment.DecRef()
	}
	writer.pending = nil
	writer.buffer = nil
	writer.deletes = nil

	writer.index.writerClosed(writer.nextSegmentId)

	return nil
}
