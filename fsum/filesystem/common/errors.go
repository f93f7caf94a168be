package common

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Common error values used across filesum packages
var (
	ErrPathEmpty         = errors.New("path cannot be empty")
	ErrPathTooLong       = errors.New("path too long (max 4096 characters)")
	ErrPathInvalid       = errors.New("path contains invalid characters")
	ErrRootNotDir        = errors.New("root path is not a directory")
	ErrSecretMissing     = errors.New("required environment variable missing")
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")
)

// Kind classifies an error by where it may be recovered.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig is a missing or invalid configuration. Always fatal.
	KindConfig
	// KindIO is a stat, open or read failure scoped to one path.
	KindIO
	// KindStore is a schema or upsert failure.
	KindStore
	// KindFatal is any failure that escapes per-file isolation.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigurationError"
	case KindIO:
		return "IOFailure"
	case KindStore:
		return "StoreFailure"
	case KindFatal:
		return "FatalRunFailure"
	default:
		return "UnknownError"
	}
}

// Error carries the operation, path and kind of a failure alongside the cause.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind, operation and path. A nil err yields nil.
func NewError(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// ConfigError wraps err as a configuration failure
func ConfigError(op string, err error) error {
	return NewError(KindConfig, op, "", err)
}

// IOError wraps err as a per-path I/O failure
func IOError(op, path string, err error) error {
	return NewError(KindIO, op, path, err)
}

// StoreError wraps err as a store failure
func StoreError(op, path string, err error) error {
	return NewError(KindStore, op, path, err)
}

// FatalError wraps err as a run-level failure and records a stack trace.
func FatalError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindFatal, Op: op, Path: path, Err: pkgerrors.WithStack(err)}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PathOf returns the path recorded on err, if any.
func PathOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}

// LogError writes a standardized error entry: context, kind, concrete type, message and
// stack trace when one was recorded.
func LogError(logger zerolog.Logger, context string, err error) {
	if err == nil {
		return
	}
	logger.Error().
		Stack().
		Err(err).
		Str("kind", KindOf(err).String()).
		Str("type", fmt.Sprintf("%T", rootCause(err))).
		Msg(context)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
