package lxml

import (
	"fmt"
	"io"
)

// Error is a diagnostic with a source position and, when recoverable from the
// input, a context excerpt of the line at which it occurred.
type Error struct {
	Message string
	Line    int
	Column  int
	Context string
}

// NewError creates a new error for the given byte offset, re-scanning r to
// recover the line, column, and context excerpt.
func NewError(msg string, r io.Reader, offset uint64) *Error {
	line, column, context, _ := Position(r, offset)
	return &Error{
		Message: msg,
		Line:    line,
		Column:  column,
		Context: context,
	}
}

// NewErrorAt creates a new error at a known position without context
// recovery, for streaming sources that cannot be re-read.
func NewErrorAt(msg string, line, column int) *Error {
	return &Error{
		Message: msg,
		Line:    line,
		Column:  column,
	}
}

// Position returns the line, column, and context of the error.
func (e *Error) Position() (int, int, string) {
	return e.Line, e.Column, e.Context
}

// Error returns the error string, containing the position and, when present,
// the context excerpt.
func (e *Error) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s on line %d and column %d", e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s on line %d and column %d\n%s", e.Message, e.Line, e.Column, e.Context)
}
