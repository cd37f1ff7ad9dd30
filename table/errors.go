// Defines errors returned by the table package.

package table

import "errors"

var (
	// ErrPoisoned is returned (or panicked with) after a mutation panicked
	// while holding the table lock.
	ErrPoisoned = errors.New("table poisoned by a panicking mutation")
	// ErrFieldCount is returned when a row returns a different number of
	// fields than its schema has columns.
	ErrFieldCount = errors.New("row field count differs from schema")
)
