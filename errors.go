package diffmerge

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors identify the category of a failure. Every *Error wraps
// exactly one of them.
var (
	// ErrInvalidArgument reports malformed input: a pattern too long for the
	// matcher, bad patch text, or a delta that does not fit its source.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal reports input the diff engine cannot represent, or an
	// internal consistency check that failed.
	ErrInternal = errors.New("internal error")
)

// Error is the structured error returned by every fallible operation.
type Error struct {
	Code    error  // ErrInvalidArgument or ErrInternal
	Op      string // operation that failed, e.g. "patch_from_text"
	Message string
	Fields  []any // alternating key/value pairs describing the failure
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for i := 0; i+1 < len(e.Fields); i += 2 {
		fmt.Fprintf(&b, " %v=%q", e.Fields[i], fmt.Sprint(e.Fields[i+1]))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the category sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

// Field returns the value recorded under key, if any.
func (e *Error) Field(key string) (any, bool) {
	for i := 0; i+1 < len(e.Fields); i += 2 {
		if k, ok := e.Fields[i].(string); ok && k == key {
			return e.Fields[i+1], true
		}
	}
	return nil, false
}

func invalidArgument(op, msg string, fields ...any) *Error {
	return &Error{Code: ErrInvalidArgument, Op: op, Message: msg, Fields: fields}
}

func internalError(op, msg string, fields ...any) *Error {
	return &Error{Code: ErrInternal, Op: op, Message: msg, Fields: fields}
}

// IsInvalidArgument reports whether err is an invalid-argument failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInternal reports whether err is an internal failure.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
