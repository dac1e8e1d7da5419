package index

import (
	"errors"
	"fmt"
)

var (
	ErrCorruptPostings    = errors.New("corrupt postings")
	ErrFieldNotFound      = errors.New("field not found in schema")
	ErrFieldTypeMismatch  = errors.New("field type mismatch")
	ErrTokenizerNotFound  = errors.New("tokenizer not registered")
	ErrPositionsNotStored = errors.New("field does not record positions")
	ErrColumnNotFound     = errors.New("field is not a fast field")
	ErrWriterClosed       = errors.New("index writer is closed")
	ErrWriterExists       = errors.New("index already has an open writer")
	ErrReaderClosed       = errors.New("index reader is closed")
)

// FieldError reports a document field the schema rejects.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
