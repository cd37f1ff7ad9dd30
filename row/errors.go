// Defines errors returned by the row package.

package row

import (
	"errors"
	"fmt"
)

// ErrConversion is matched by every *ConversionError.
var ErrConversion = errors.New("literal type conversion failed")

// ConversionError is returned when a value or column does not have the
// literal type the caller asked for.
type ConversionError struct {
	// Column is the column name, when known.
	Column string
	// Want is the requested type, or the invalid zero Type when Got has no
	// literal type at all.
	Want Type
	// Got describes what was found instead: a literal type name, "null" or a
	// foreign type name such as an Arrow data type.
	Got string
}

func (e *ConversionError) Error() string {
	if !e.Want.Valid() {
		if e.Column != "" {
			return fmt.Sprintf("column %q: unsupported type %s", e.Column, e.Got)
		}
		return fmt.Sprintf("unsupported type %s", e.Got)
	}
	if e.Column != "" {
		return fmt.Sprintf("column %q: cannot convert %s to %s", e.Column, e.Got, e.Want)
	}
	return fmt.Sprintf("cannot convert %s to %s", e.Got, e.Want)
}

// Is reports whether target is ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}
