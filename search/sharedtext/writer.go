package sharedtext

import (
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/larose/sharedtext/search/analyzer"
	"github.com/larose/sharedtext/search/index"
	"github.com/larose/sharedtext/search/metrics"
	"github.com/larose/sharedtext/search/utils"
)

// Writer adds the texts of many shards to one in-memory index. Calls are
// serialized and take effect in call order. Added texts and shard deletions
// become visible to readers after Commit and a reader Reload.
type Writer struct {
	config WriterConfig
	fields Fields
	opts   options

	index  *index.Index
	writer *index.IndexWriter

	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWriter(config WriterConfig, opts ...Option) (*Writer, error) {
	const op = "new writer"

	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := newOptions(opts)

	a, err := analyzer.New(config.AnalyzerParams)
	if err != nil {
		return nil, newError(KindConfig, op, err)
	}

	schema, fields := BuildSchema(config.FieldName, config.TokenizerName)

	idx := index.NewIndex(schema)
	idx.Tokenizers().Register(config.TokenizerName, a)

	indexWriter, err := idx.Writer(index.IndexWriterOptions{
		NumThreads:   config.NumThreads,
		MemoryBudget: config.MemoryBudgetBytes,
		MaxSegments:  config.MaxSegments,
		Logger:       o.logger.With("component", "index_writer"),
		Metrics:      o.metrics,
	})
	if err != nil {
		return nil, newError(KindEngine, op, err)
	}

	o.logger.Info("created shared text index writer",
		"field", config.FieldName,
		"tokenizer", config.TokenizerName,
		"num_threads", config.NumThreads,
		"memory_budget", config.MemoryBudgetBytes)

	return &Writer{
		config:  config,
		fields:  fields,
		opts:    o,
		index:   idx,
		writer:  indexWriter,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

func (w *Writer) Fields() Fields {
	return w.fields
}

// AddText adds one document. Text must be valid UTF-8.
func (w *Writer) AddText(shard uint64, localId uint64, text string) error {
	const op = "add text"

	if !utf8.ValidString(text) {
		return newError(KindEncoding, op, errors.New("text is not valid UTF-8"))
	}

	_, err := w.writer.AddDocument(index.Document{
		index.NewTextField(w.fields.Text, []byte(text)),
		index.NewU64Field(w.fields.Shard, shard),
		index.NewU64Field(w.fields.LocalId, localId),
	})
	if err != nil {
		return engineError(op, err)
	}

	w.metrics.DocumentsAdded.Inc()

	return nil
}

// AddTexts gives texts[i] the local id offsetBegin+i. It stops at the first
// failure, texts before it stay added.
func (w *Writer) AddTexts(shard uint64, texts []string, offsetBegin uint64) error {
	return w.AddTextsWithValidity(shard, texts, nil, offsetBegin)
}

// AddTextsWithValidity skips the texts whose valid flag is false. Skipped
// texts still use up their local id. A nil valid marks every text valid.
func (w *Writer) AddTextsWithValidity(shard uint64, texts []string, valid []bool, offsetBegin uint64) error {
	if valid != nil && len(valid) != len(texts) {
		return configError("add texts", "%d validity flags for %d texts", len(valid), len(texts))
	}

	for i, text := range texts {
		if valid != nil && !valid[i] {
			continue
		}

		if err := w.AddText(shard, offsetBegin+uint64(i), text); err != nil {
			return err
		}
	}

	return nil
}

// DeleteShard removes every document of shard added before the call. Texts
// added afterwards are kept.
func (w *Writer) DeleteShard(shard uint64) error {
	if _, err := w.writer.DeleteTerm(w.fields.Shard, utils.Uint64ToBytes(shard)); err != nil {
		return engineError("delete shard", err)
	}

	w.metrics.ShardDeletes.Inc()

	return nil
}

func (w *Writer) Commit() error {
	if _, err := w.writer.Commit(); err != nil {
		return engineError("commit", err)
	}

	return nil
}

// CreateReader opens a reader on the last committed snapshot.
func (w *Writer) CreateReader() (*Reader, error) {
	return newReader(w.index, w.fields, w.opts), nil
}

// RegisterTokenizer builds an analyzer from params and registers it under
// name for the writer and all readers of the index.
func (w *Writer) RegisterTokenizer(name string, analyzerParams string) error {
	return registerTokenizer(w.index, name, analyzerParams)
}

// Close drops uncommitted texts and deletions. Readers keep working.
func (w *Writer) Close() error {
	if err := w.writer.Close(); err != nil {
		return engineError("close writer", err)
	}

	return nil
}

func registerTokenizer(idx *index.Index, name string, analyzerParams string) error {
	const op = "register tokenizer"

	if name == "" {
		return configError(op, "empty tokenizer name")
	}

	a, err := analyzer.New(analyzerParams)
	if err != nil {
		return newError(KindConfig, op, err)
	}

	idx.Tokenizers().Register(name, a)

	return nil
}

func engineError(op string, err error) *Error {
	if errors.Is(err, index.ErrWriterClosed) || errors.Is(err, index.ErrReaderClosed) {
		err = errors.Join(ErrClosed, err)
	}

	return newError(KindEngine, op, err)
}
