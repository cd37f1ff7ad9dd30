// Defines errors returned by the tableview package.

package tableview

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTitle is returned when a view has no column.
	ErrNoTitle = errors.New("view has no title")
	// ErrEmptyTitle is returned when a title is the empty string.
	ErrEmptyTitle = errors.New("title is empty")
	// ErrSpaceInTitle is returned when a title contains a space.
	ErrSpaceInTitle = errors.New("title contains a space")
	// ErrNewlineInTitle is returned when a title contains a newline.
	ErrNewlineInTitle = errors.New("title contains a newline")
	// ErrRowLength is returned when a row does not have one cell per title.
	ErrRowLength = errors.New("row length differs from title count")
	// ErrNewlineInCell is returned when a cell contains a newline.
	ErrNewlineInCell = errors.New("cell contains a newline")
	// ErrAlignmentCount is returned when a Writer does not get one alignment
	// per column.
	ErrAlignmentCount = errors.New("alignment count differs from column count")
	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("cannot decode table")
)

// InvariantError reports which part of a table breaks a view invariant.
type InvariantError struct {
	// Row is the data row index, or -1 for the title line.
	Row int
	// Column is the column index, or -1 when the whole row (or title line) is
	// at fault.
	Column int
	Err    error
}

func (e *InvariantError) Error() string {
	switch {
	case e.Row < 0 && e.Column < 0:
		return e.Err.Error()
	case e.Row < 0:
		return fmt.Sprintf("title %d: %v", e.Column, e.Err)
	case e.Column < 0:
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	default:
		return fmt.Sprintf("row %d, column %d: %v", e.Row, e.Column, e.Err)
	}
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// DecodeError is returned by Parse and Decode.
type DecodeError struct {
	// Line is the 1-based input line at fault, or 0 when the table as a whole
	// is invalid.
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %v", ErrDecode, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
