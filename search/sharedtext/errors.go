package sharedtext

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindConfig covers bad writer config and analyzer params.
	KindConfig Kind = iota + 1
	// KindEngine covers failures of the underlying index.
	KindEngine
	// KindEncoding covers text that is not valid UTF-8.
	KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindEngine:
		return "engine"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

var (
	ErrConfig   = errors.New("configuration error")
	ErrEngine   = errors.New("engine error")
	ErrEncoding = errors.New("encoding error")
	ErrClosed   = errors.New("shared text index closed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindEngine:
		return ErrEngine
	case KindEncoding:
		return ErrEncoding
	default:
		return nil
	}
}

// Error is returned by every operation of the package. errors.Is matches it
// against the sentinel of its kind and against the wrapped error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sharedtext %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return 0, false
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func configError(op string, format string, args ...any) *Error {
	return newError(KindConfig, op, fmt.Errorf(format, args...))
}
