package clierr

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/exitwrap/pkg/failure"
)

// Kind is the closed set of terminal failure classes.
type Kind int

const (
	// KindOpaque covers any failure that does not match a known class.
	KindOpaque Kind = iota
	// KindProcessing is a non-retryable failure in program logic.
	KindProcessing
	// KindRetryable is a transient failure; the caller may run again.
	KindRetryable
)

func (k Kind) String() string {
	switch k {
	case KindProcessing:
		return "processing"
	case KindRetryable:
		return "retryable"
	default:
		return "opaque"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "opaque":
		return KindOpaque, nil
	case "processing":
		return KindProcessing, nil
	case "retryable":
		return KindRetryable, nil
	default:
		return KindOpaque, fmt.Errorf("unknown error kind %q", s)
	}
}

// Error is a classified terminal failure. Message is used for the named
// kinds; Err carries the wrapped cause, which is the whole payload of an
// opaque error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func Processing(msg string) *Error {
	return &Error{Kind: KindProcessing, Message: msg}
}

func Retryable(msg string) *Error {
	return &Error{Kind: KindRetryable, Message: msg}
}

func Processingf(format string, args ...any) *Error {
	return Processing(fmt.Sprintf(format, args...))
}

func Retryablef(format string, args ...any) *Error {
	return Retryable(fmt.Sprintf(format, args...))
}

// WrapProcessing classifies err as a processing failure described by msg.
func WrapProcessing(msg string, err error) *Error {
	return &Error{Kind: KindProcessing, Message: msg, Err: err}
}

// WrapRetryable classifies err as a retryable failure described by msg.
func WrapRetryable(msg string, err error) *Error {
	return &Error{Kind: KindRetryable, Message: msg, Err: err}
}

// Opaque wraps an error that carries no classification of its own.
func Opaque(err error) *Error {
	return &Error{Kind: KindOpaque, Err: err}
}

// nilErrorText renders a typed-nil *Error that reached the handler.
const nilErrorText = "nil *clierr.Error returned"

func (e *Error) Error() string {
	if e == nil {
		return nilErrorText
	}
	switch e.Kind {
	case KindProcessing:
		return "Processing error: " + e.detail()
	case KindRetryable:
		return "Retryable error: " + e.detail()
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		if e.Message != "" {
			return e.Message
		}
		return "unknown error"
	}
}

func (e *Error) detail() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) IsRetryable() bool {
	return e != nil && e.Kind == KindRetryable
}

func (e *Error) Severity() failure.Severity {
	if e.IsRetryable() {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// Classify returns the outermost *Error in err's chain, or wraps err as
// opaque when there is none. It returns nil for a nil error. A typed-nil
// *Error in the chain is opaque.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		if classified == nil {
			return &Error{Kind: KindOpaque, Message: nilErrorText}
		}
		return classified
	}
	return Opaque(err)
}
