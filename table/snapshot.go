// Handles the projection of rows into Arrow records and back.

package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/maruel/livetable/row"
)

// Snapshot returns the rows as an Arrow record with one nullable column per
// schema column, in no particular row order. The caller must release it.
//
// The read lock is only held while copying the row fields.
func (t *Table[R]) Snapshot() (arrow.Record, error) {
	schema := row.SchemaOf[R]()
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	cols, err := t.s.collect(len(schema))
	if err != nil {
		return nil, err
	}
	return buildRecord(t.s.mem, schema, cols)
}

// collect copies the fields of every row, column by column.
func (s *store[R]) collect(width int) ([][]row.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, ErrPoisoned
	}
	cols := make([][]row.Value, width)
	for j := range cols {
		cols[j] = make([]row.Value, 0, s.rows.Len())
	}
	for k, r := range s.rows.All() {
		fields := r.Fields()
		if len(fields) != width {
			return nil, fmt.Errorf("%w: row %s has %d fields, schema has %d", ErrFieldCount, k, len(fields), width)
		}
		for j, v := range fields {
			cols[j] = append(cols[j], v)
		}
	}
	return cols, nil
}

func buildRecord(mem memory.Allocator, schema row.Schema, cols [][]row.Value) (arrow.Record, error) {
	fields := make([]arrow.Field, len(schema))
	for j, c := range schema {
		fields[j] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()
	for j, c := range schema {
		if err := appendValues(b.Field(j), c, cols[j]); err != nil {
			return nil, err
		}
	}
	return b.NewRecord(), nil
}

func arrowType(t row.Type) arrow.DataType {
	switch t {
	case row.TypeString:
		return arrow.BinaryTypes.String
	case row.TypeUInt:
		return arrow.PrimitiveTypes.Uint64
	case row.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case row.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case row.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		panic(fmt.Sprintf("invalid literal type %s", t))
	}
}

func appendValues(b array.Builder, c row.Column, vals []row.Value) error {
	b.Reserve(len(vals))
	for _, v := range vals {
		if v.IsNull() {
			b.AppendNull()
			continue
		}
		if v.Type() != c.Type {
			return &row.ConversionError{Column: c.Name, Want: c.Type, Got: v.Type().String()}
		}
		switch b := b.(type) {
		case *array.StringBuilder:
			s, _ := v.AsString()
			b.Append(s)
		case *array.Uint64Builder:
			u, _ := v.AsUInt()
			b.Append(u)
		case *array.Int64Builder:
			i, _ := v.AsInt()
			b.Append(i)
		case *array.Float64Builder:
			f, _ := v.AsFloat()
			b.Append(f)
		case *array.BooleanBuilder:
			x, _ := v.AsBool()
			b.Append(x)
		}
	}
	return nil
}

// literalType maps an Arrow type of a query result to a literal type.
func literalType(f arrow.Field) (row.Type, error) {
	switch f.Type.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return row.TypeString, nil
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return row.TypeUInt, nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return row.TypeInt, nil
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return row.TypeFloat, nil
	case arrow.BOOL:
		return row.TypeBool, nil
	default:
		return 0, &row.ConversionError{Column: f.Name, Got: f.Type.String()}
	}
}

// literal returns the cell at row i of arr, whose type passed literalType.
func literal(arr arrow.Array, i int) row.Value {
	if arr.IsNull(i) {
		return row.Null()
	}
	switch a := arr.(type) {
	case *array.String:
		return row.String(a.Value(i))
	case *array.LargeString:
		return row.String(a.Value(i))
	case *array.Uint8:
		return row.UInt(uint64(a.Value(i)))
	case *array.Uint16:
		return row.UInt(uint64(a.Value(i)))
	case *array.Uint32:
		return row.UInt(uint64(a.Value(i)))
	case *array.Uint64:
		return row.UInt(a.Value(i))
	case *array.Int8:
		return row.Int(int64(a.Value(i)))
	case *array.Int16:
		return row.Int(int64(a.Value(i)))
	case *array.Int32:
		return row.Int(int64(a.Value(i)))
	case *array.Int64:
		return row.Int(a.Value(i))
	case *array.Float16:
		return row.Float(float64(a.Value(i).Float32()))
	case *array.Float32:
		return row.Float(float64(a.Value(i)))
	case *array.Float64:
		return row.Float(a.Value(i))
	case *array.Boolean:
		return row.Bool(a.Value(i))
	default:
		return row.Null()
	}
}
