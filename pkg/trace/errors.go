package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is returned when the trace file cannot be opened or read.
	ErrIO = errors.New("trace unreadable")
	// ErrParse is returned when a record is malformed.
	ErrParse = errors.New("malformed trace record")
)

// ParseError describes a record that lacks the key column.
type ParseError struct {
	Line   int // 1-based line in the source
	Column int // requested key column
	Fields int // fields actually present
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: key column %d missing (record has %d fields)", e.Line, e.Column, e.Fields)
}

// Unwrap lets errors.Is(err, ErrParse) match.
func (*ParseError) Unwrap() error {
	return ErrParse
}
