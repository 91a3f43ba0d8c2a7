package ceremony

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies every failure a ceremony operation can return.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindInvalidParticipant: a referenced participant is absent from the
	// expected map, or is not allowed to act.
	KindInvalidParticipant
	// KindInsufficientParticipants: threshold or participant counts are
	// invalid, or too few participants have contributed.
	KindInsufficientParticipants
	KindKeygen
	KindSigning
	// KindSerialization: malformed or undecodable input or state.
	KindSerialization
	// KindInvalidStateTransition: wrong round, or malformed state.
	KindInvalidStateTransition
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidParticipant:
		return "InvalidParticipant"
	case KindInsufficientParticipants:
		return "InsufficientParticipants"
	case KindKeygen:
		return "KeygenError"
	case KindSigning:
		return "SigningError"
	case KindSerialization:
		return "SerializationError"
	case KindInvalidStateTransition:
		return "InvalidStateTransition"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidParticipant       = &Error{Kind: KindInvalidParticipant}
	ErrInsufficientParticipants = &Error{Kind: KindInsufficientParticipants}
	ErrKeygen                   = &Error{Kind: KindKeygen}
	ErrSigning                  = &Error{Kind: KindSigning}
	ErrSerialization            = &Error{Kind: KindSerialization}
	ErrInvalidStateTransition   = &Error{Kind: KindInvalidStateTransition}
)

// Error is the error type of every ceremony operation.
type Error struct {
	Kind   ErrorKind
	Detail string
	// Required and Actual are set for KindInsufficientParticipants.
	Required int
	Actual   int
	Original error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", e.Kind))
	if e.Detail != "" {
		sb.WriteString(" " + e.Detail)
	}
	if e.Kind == KindInsufficientParticipants {
		sb.WriteString(fmt.Sprintf(" (required %d, actual %d)", e.Required, e.Actual))
	}
	if e.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Original))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Original
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == "" && t.Original == nil
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Original: err}
}

func insufficient(required, actual int, format string, args ...any) *Error {
	return &Error{
		Kind:     KindInsufficientParticipants,
		Detail:   fmt.Sprintf(format, args...),
		Required: required,
		Actual:   actual,
	}
}
