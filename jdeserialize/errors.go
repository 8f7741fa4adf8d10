package jdeserialize

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// ValidityError reports a stream that is well-formed at the byte level but
// violates a grammar or semantic rule (bad magic, unknown tag, a handle
// reference to a table slot that was never bound, ...).
type ValidityError struct {
	msg string
}

func (e *ValidityError) Error() string { return e.msg }

func newValidityError(format string, args ...interface{}) *ValidityError {
	return &ValidityError{msg: errors.Errorf(format, args...).Error()}
}

// TruncationError reports a stream that ends, or a block that declares a
// length, before the bytes the grammar requires have been supplied.
type TruncationError struct {
	msg string
	err error
}

func (e *TruncationError) Error() string { return e.msg }
func (e *TruncationError) Cause() error  { return e.err }
func (e *TruncationError) Unwrap() error { return e.err }

func wrapTruncation(err error, format string, args ...interface{}) *TruncationError {
	wrapped := errors.Wrapf(err, format, args...)
	return &TruncationError{msg: wrapped.Error(), err: err}
}

// SizeLimitError reports a length field that is well-formed at the byte
// level but outside what the grammar or Go's representation allows: a
// negative array or block-data length, or a long string length of 2^31 or
// more.
type SizeLimitError struct {
	msg string
}

func (e *SizeLimitError) Error() string { return e.msg }

func newSizeLimitError(format string, args ...interface{}) *SizeLimitError {
	return &SizeLimitError{msg: errors.Errorf(format, args...).Error()}
}

// embeddedExceptionSignal carries a flagged exception Content up through
// ordinary error returns from wherever it was read as a nested value to the
// top-level loop in Decode, the only place that turns it into an
// EXCEPTION_STATE. It is never shown to a caller of Decode.
type embeddedExceptionSignal struct {
	content *Content
}

func (e *embeddedExceptionSignal) Error() string {
	return "embedded exception object encountered while reading a nested value"
}

// asEmbeddedException reports whether err, or anything in the chain of
// causes/wraps leading to it, is an embeddedExceptionSignal, returning the
// flagged Content if so. The array-element reader wraps this signal with
// errors.Wrapf on its way up (per-index context), so a plain type assertion
// would miss it there; walking the chain tolerates wrapping at any point on
// the nested-read path, not just the unwrapped object-field path.
func asEmbeddedException(err error) (*Content, bool) {
	var sig *embeddedExceptionSignal
	if !stderrors.As(err, &sig) {
		return nil, false
	}
	return sig.content, true
}
