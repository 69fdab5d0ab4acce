// Package configerr defines the closed set of failure kinds raised while
// resolving configuration. Components construct a tagged *Error at the point
// of failure; callers match kinds with errors.Is against the sentinels below.
package configerr

import (
	"errors"
	"fmt"
)

// Kind classifies a configuration failure.
type Kind uint8

const (
	// KindUnknown is reported for errors that did not originate in this package.
	KindUnknown Kind = iota
	// KindMalformedInput covers unparsable file content and bad command-line shape.
	KindMalformedInput
	// KindMissingSource marks an optional source that was not found. It is never fatal.
	KindMissingSource
	// KindConfiguration covers settings that are structurally illegal, such as
	// an unknown environment or an environment selector stored in a file.
	KindConfiguration
	// KindValidation reports a non-empty violation set.
	KindValidation
	// KindReentrant reports a second bootstrap attempt in one process.
	KindReentrant
)

var (
	// ErrMalformedInput matches errors of KindMalformedInput.
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingSource matches errors of KindMissingSource.
	ErrMissingSource = errors.New("missing source")
	// ErrConfiguration matches errors of KindConfiguration.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation matches errors of KindValidation.
	ErrValidation = errors.New("validation failed")
	// ErrReentrant matches errors of KindReentrant.
	ErrReentrant = errors.New("bootstrap already attempted")
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed_input"
	case KindMissingSource:
		return "missing_source"
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindReentrant:
		return "reentrant"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindMalformedInput:
		return ErrMalformedInput
	case KindMissingSource:
		return ErrMissingSource
	case KindConfiguration:
		return ErrConfiguration
	case KindValidation:
		return ErrValidation
	case KindReentrant:
		return ErrReentrant
	default:
		return nil
	}
}

// Error is a configuration failure tagged with its kind.
type Error struct {
	Kind Kind
	// Op names the component or step that failed, e.g. "read file".
	Op  string
	Msg string
	Err error
}

// New builds an *Error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with a kind. It returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case msg != "" && e.Err != nil:
		msg = msg + ": " + e.Err.Error()
	case msg == "":
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err should abort a bootstrap.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) != KindMissingSource
}
