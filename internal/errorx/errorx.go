// Package errorx provides the conceptual error kinds used across the core
// (spec §7) plus the defer-based wrapping helpers the rest of the module
// uses to attach context to a returned error without cluttering call sites.
package errorx

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Kind is a conceptual error category. It is never exposed to wire clients
// directly; the ipc dispatcher humanizes it into a response message.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	AlreadyExists
	Forbidden
	Busy
	InvalidInput
	Canceled
	Io
	Storage
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case Forbidden:
		return "forbidden"
	case Busy:
		return "busy"
	case InvalidInput:
		return "invalid_input"
	case Canceled:
		return "canceled"
	case Io:
		return "io"
	case Storage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by storage/provider/dedupe
// operations. It carries a Kind so callers can branch on failure class
// without string matching, and a human message for the IPC response.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a new *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a new *Error of the given kind wrapping cause. The given
// kind always applies, even when cause is itself an *Error; the inner
// error and its Kind stay reachable through errors.As on the cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err, defaulting to Unknown if err is not (or
// does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// WrapIfError wraps *err with an additional message if it is not nil. It is
// meant to be used inside a defer so the wrapping happens regardless of
// which return statement fired.
func WrapIfError(msg string, err *error) {
	if *err != nil {
		*err = fmt.Errorf("%s: %w", msg, *err)
	}
}

// WrapWithFuncNameIfError wraps *err with the name of its caller if the
// error is not nil. Meant to be used as `defer errorx.WrapWithFuncNameIfError(&err)`
// at the top of a function.
func WrapWithFuncNameIfError(err *error) {
	if *err == nil {
		return
	}
	pc, _, _, ok := runtime.Caller(1)
	details := runtime.FuncForPC(pc)
	if ok && details != nil {
		*err = fmt.Errorf("%s: %w", filepath.Base(details.Name()), *err)
	}
}
