package collab

import (
	"errors"
	"fmt"
)

// Kind classifies collaboration failures.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidState
	KindInvalidArgument
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is a classified collaboration error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or zero if err carries none.
func KindOf(err error) Kind {
	var collabErr *Error
	if errors.As(err, &collabErr) {
		return collabErr.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Err: fmt.Errorf(format, args...)}
}

// InvalidState builds a KindInvalidState error.
func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Err: fmt.Errorf(format, args...)}
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Err: fmt.Errorf(format, args...)}
}

// Forbidden builds a KindForbidden error.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Err: fmt.Errorf(format, args...)}
}
