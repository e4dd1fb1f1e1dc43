package apperrors

import (
	"errors"
	"strings"
)

// appError is the concrete Error implementation. Values are immutable;
// every derivation returns a new value so sentinel errors declared at
// package level are never mutated by call sites.
type appError struct {
	msg        string  // primary message
	base       error   // template this error was derived from
	wrapped    []error // additional wrapped errors
	statusCode int     // HTTP status code, 0 when unset
	expand     bool    // whether ErrorAll includes wrapped errors
}

// New creates a root-level application error.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll returns the message followed by all wrapped errors when
// expansion is enabled, otherwise just the message.
func (e *appError) ErrorAll() string {
	if !e.expand || len(e.wrapped) == 0 {
		return e.msg
	}
	var b strings.Builder
	b.WriteString(e.msg)
	for _, err := range e.wrapped {
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *appError) Unwrap() error {
	return e.base
}

func (e *appError) UnwrapAll() []error {
	return e.wrapped
}

// New derives a fresh error with the current one as its template. The
// derived error inherits the status code but carries no wrapped errors.
func (e *appError) New(msg string) Error {
	return &appError{msg: msg, base: e, statusCode: e.statusCode, expand: e.expand}
}

// Msg derives an error with a new message, wrapping the current one.
func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		wrapped:    append([]error{e}, e.wrapped...),
		statusCode: e.statusCode,
		expand:     e.expand,
	}
}

// MsgErr derives an error with a new message wrapping the current error and
// any extras.
func (e *appError) MsgErr(msg string, errs ...error) Error {
	return &appError{
		msg:        msg,
		base:       e,
		wrapped:    append([]error{e}, errs...),
		statusCode: e.statusCode,
		expand:     e.expand,
	}
}

// Err derives an error keeping the current message and attaching extras.
func (e *appError) Err(errs ...error) Error {
	return &appError{
		msg:        e.msg,
		base:       e,
		wrapped:    append([]error{e}, errs...),
		statusCode: e.statusCode,
		expand:     true,
	}
}

func (e *appError) SetExpandError(flag bool) Error {
	cp := *e
	cp.expand = flag
	return &cp
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statusCode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statusCode
}

// Is matches against the template chain and all wrapped errors, so
// errors.Is(derived, sentinel) holds for any ancestor sentinel.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.wrapped {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
