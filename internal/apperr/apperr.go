// Package apperr holds the error taxonomy shared by every layer of the bridge.
//
// Errors are created with one of the kind constructors and inspected with
// KindOf. Services wrap their sentinel errors so errors.Is keeps working
// through the taxonomy.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the command boundary.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTranslation is a malformed transport value (wrong shape, bad number).
	KindTranslation
	// KindValidation is a business rule violation.
	KindValidation
	// KindPersistence is a failure of the underlying data store.
	KindPersistence
	// KindNotFound is a lookup miss.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified error. Msg is safe to show to the user; Err is the
// underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Translation reports a transport value that could not be converted.
func Translation(format string, args ...any) error {
	return &Error{Kind: KindTranslation, Msg: fmt.Sprintf(format, args...)}
}

// Validation wraps err (usually a package sentinel) as a business rule violation.
func Validation(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

// NotFound wraps err (usually a package sentinel) as a lookup miss.
func NotFound(err error) error {
	return &Error{Kind: KindNotFound, Err: err}
}

// Persistence wraps a driver error with the operation that failed.
func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Msg: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user facing message for err. Persistence failures do
// not leak driver details beyond the failed operation.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Kind == KindPersistence {
		return "error de base de datos: " + e.Msg
	}
	return e.Error()
}
