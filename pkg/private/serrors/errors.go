// Package serrors provides structured errors that carry key-value context,
// in the style used throughout the routing core: every error records what
// went wrong and the values that explain why, so log lines and test
// assertions don't have to re-derive them from a formatted string.
package serrors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a structured error with an optional wrapped cause and a list of
// key-value context pairs.
type Error struct {
	msg    string
	cause  error
	fields []any
}

// New creates a structured error with no wrapped cause. fields must be an
// even-length list of alternating keys (string) and values.
func New(msg string, fields ...any) error {
	return &Error{msg: msg, fields: fields}
}

// Wrap creates a structured error around cause, adding context. If cause is
// nil, Wrap returns nil, so callers can write `return serrors.Wrap(..., err)`
// without an extra nil check.
func Wrap(msg string, cause error, fields ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{msg: msg, cause: cause, fields: fields}
}

// WithCtx returns a copy of err (if it is an *Error, or a freshly wrapped
// one otherwise) with additional key-value context appended.
func WithCtx(err error, fields ...any) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		merged := append(append([]any{}, se.fields...), fields...)
		return &Error{msg: se.msg, cause: se.cause, fields: merged}
	}
	return &Error{msg: err.Error(), cause: err, fields: fields}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.msg)
	for i := 0; i+1 < len(e.fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.fields[i], e.fields[i+1])
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err, or any error it wraps, equals target by message
// when target was itself constructed by New with no fields. This lets call
// sites assert on the sentinel errors declared in pkg/collect/collecterr via
// errors.Is despite the dynamic field list.
func (e *Error) Is(target error) bool {
	var te *Error
	if !errors.As(target, &te) {
		return false
	}
	return e.msg == te.msg
}
