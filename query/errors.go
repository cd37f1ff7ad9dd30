// Defines errors returned by query engines.

package query

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is returned for malformed statements.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownStatement is returned for an unknown statement keyword.
	ErrUnknownStatement = errors.New("unknown statement")
	// ErrUnknownColumn is returned when a statement names a missing column.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrLiteral is returned when a literal cannot be compared with a column.
	ErrLiteral = errors.New("invalid literal")
)

// Phase is the query step that failed.
type Phase uint8

const (
	// PhaseParse means the query text was rejected before touching data.
	PhaseParse Phase = iota + 1
	// PhaseExecute means the plan failed on the snapshot.
	PhaseExecute
)

func (p Phase) String() string {
	switch p {
	case PhaseParse:
		return "parse"
	case PhaseExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// Error is returned by Engine.Parse and Plan.Execute.
type Error struct {
	Phase Phase
	// Line is the 1-based line of the failing statement, 0 if unknown.
	Line int
	// Statement is the failing statement text, if known.
	Statement string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Statement != "" && e.Line > 0:
		return fmt.Sprintf("query %s error on line %d %q: %v", e.Phase, e.Line, e.Statement, e.Err)
	case e.Statement != "":
		return fmt.Sprintf("query %s error in %q: %v", e.Phase, e.Statement, e.Err)
	default:
		return fmt.Sprintf("query %s error: %v", e.Phase, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsParse reports whether err is a query error raised while parsing.
func IsParse(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Phase == PhaseParse
}

// IsExecute reports whether err is a query error raised while executing.
func IsExecute(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Phase == PhaseExecute
}
