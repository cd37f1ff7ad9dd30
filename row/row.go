// Defines the Row capability, schemas and display hooks.

package row

import (
	"errors"
	"fmt"
	"strings"
)

// Column is a named, typed column of a schema.
type Column struct {
	Name string
	Type Type
}

// Schema is the ordered list of columns of a record type.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that every column has a usable title and a valid type, and
// that names are unique.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return errors.New("schema has no column")
	}
	seen := make(map[string]struct{}, len(s))
	for i, c := range s {
		if c.Name == "" {
			return fmt.Errorf("column %d: name is required", i)
		}
		if strings.ContainsAny(c.Name, " \n") {
			return fmt.Errorf("column %d: name %q contains a space or a newline", i, c.Name)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("column %q: %s", c.Name, c.Type)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("column %q: duplicate name", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Row is implemented by record types stored in a table.
type Row interface {
	// Schema returns the columns of the record type. It is called on the zero
	// value and must return the same schema for every value of the type.
	Schema() Schema
	// Fields returns one value per column, in schema order. A value is either
	// null or of its column's type.
	Fields() []Value
}

// Displayer is optionally implemented by a Row to control how its values are
// rendered in a table view. header is the title of the column the value is
// rendered under, which is not necessarily a schema column name once a query
// renamed or derived columns.
type Displayer interface {
	DisplayValue(header string, v Value) string
}

// SchemaOf returns the schema of R.
func SchemaOf[R Row]() Schema {
	var zero R
	return zero.Schema()
}

// Display renders v through r's Displayer when r implements it, and through
// Value.String otherwise.
func Display(r any, header string, v Value) string {
	if d, ok := r.(Displayer); ok {
		return d.DisplayValue(header, v)
	}
	return v.String()
}
