// Package tqerr defines tq's structured error taxonomy (spec.md §7):
// LexerError, ParseError, EvalError and IOError, each carrying a message
// and, where practical, a source position.
package tqerr

import (
	"errors"
	"fmt"
)

// Kind is one of the four error categories spec.md §7 defines.
type Kind string

const (
	Lexer Kind = "LexerError"
	Parse Kind = "ParseError"
	Eval  Kind = "EvalError"
	IO    Kind = "IOError"
)

// Error is tq's structured error value. LexerError and ParseError are
// fatal for a query and cannot be caught by `try`; EvalError unwinds to
// the nearest enclosing `try`; IOError is only ever raised by the TOON
// reader/writer or the CLI driver.
type Error struct {
	Kind     Kind
	Message  string
	Position int // -1 when no position is available
	err      error
}

// New creates an Error with no source position.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Position: -1}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Position: -1}
}

// At sets the source position and returns the receiver for chaining.
func (e *Error) At(pos int) *Error {
	e.Position = pos
	return e
}

// Wrap sets the wrapped cause and returns the receiver for chaining.
func (e *Error) Wrap(err error) *Error {
	e.err = err
	return e
}

func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As over the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Catchable reports whether `try`/`catch` may intercept this error: only
// EvalError is catchable (spec.md §7's propagation policy).
func Catchable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == Eval
	}
	return false
}
