// Provides the row-index frame the pipeline statements operate on.

package query

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/SierraSoftworks/connor"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// frame is a lazy view over the input record: statements reorder columns
// and row indexes, materialize copies the selected cells once at the end.
type frame struct {
	fields []arrow.Field
	cols   []arrow.Array
	idx    []int
}

func newFrame(rec arrow.Record) *frame {
	n := int(rec.NumRows())
	f := &frame{
		fields: rec.Schema().Fields(),
		cols:   slices.Clone(rec.Columns()),
		idx:    make([]int, n),
	}
	for i := range f.idx {
		f.idx[i] = i
	}
	return f
}

func (f *frame) column(name string) (int, error) {
	for j := range f.fields {
		if f.fields[j].Name == name {
			return j, nil
		}
	}
	return -1, fmt.Errorf("%w %q", ErrUnknownColumn, name)
}

// materialize builds a new record holding the selected rows.
func (f *frame) materialize(mem memory.Allocator) (arrow.Record, error) {
	cols := make([]arrow.Array, len(f.cols))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for j, c := range f.cols {
		a, err := take(mem, c, f.idx)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.fields[j].Name, err)
		}
		cols[j] = a
	}
	schema := arrow.NewSchema(f.fields, nil)
	return array.NewRecord(schema, cols, int64(len(f.idx))), nil
}

// take copies the cells of arr at idx into a new array.
func take(mem memory.Allocator, arr arrow.Array, idx []int) (arrow.Array, error) {
	b := array.NewBuilder(mem, arr.DataType())
	defer b.Release()
	b.Reserve(len(idx))
	switch a := arr.(type) {
	case *array.String:
		takeTyped[string](a, b.(*array.StringBuilder), idx)
	case *array.Int64:
		takeTyped[int64](a, b.(*array.Int64Builder), idx)
	case *array.Uint64:
		takeTyped[uint64](a, b.(*array.Uint64Builder), idx)
	case *array.Float64:
		takeTyped[float64](a, b.(*array.Float64Builder), idx)
	case *array.Boolean:
		takeTyped[bool](a, b.(*array.BooleanBuilder), idx)
	default:
		for _, i := range idx {
			if arr.IsNull(i) {
				b.AppendNull()
				continue
			}
			if err := b.AppendValueFromString(arr.ValueStr(i)); err != nil {
				return nil, err
			}
		}
	}
	return b.NewArray(), nil
}

func takeTyped[T any, A interface {
	IsNull(int) bool
	Value(int) T
}, B interface {
	AppendNull()
	Append(T)
}](a A, b B, idx []int) {
	for _, i := range idx {
		if a.IsNull(i) {
			b.AppendNull()
		} else {
			b.Append(a.Value(i))
		}
	}
}

// cell returns the value at row i as string, int64, uint64, float64 or bool,
// or nil when null. Unknown array types use their string form.
func cell(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return uint64(a.Value(i))
	case *array.Uint16:
		return uint64(a.Value(i))
	case *array.Uint32:
		return uint64(a.Value(i))
	case *array.Uint64:
		return a.Value(i)
	case *array.Float16:
		return float64(a.Value(i).Float32())
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	default:
		return arr.ValueStr(i)
	}
}

// coerce parses text as a value comparable with the cells of a column of
// type dt.
func coerce(dt arrow.DataType, text string) (any, error) {
	var v any
	var err error
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		v, err = strconv.ParseInt(text, 10, 64)
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		v, err = strconv.ParseUint(text, 10, 64)
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		v, err = strconv.ParseFloat(text, 64)
	case arrow.BOOL:
		v, err = strconv.ParseBool(text)
	default:
		v = text
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid %s", ErrLiteral, text, dt)
	}
	return v, nil
}

// compare orders two cells. Null sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return cmp.Compare(va, vb)
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return cmp.Compare(va, vb)
		}
	case uint64:
		if vb, ok := b.(uint64); ok {
			return cmp.Compare(va, vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return cmp.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(toString(a), toString(b))
}

func toString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

type selectOp struct {
	names []string
}

func (o selectOp) apply(f *frame) error {
	fields := make([]arrow.Field, len(o.names))
	cols := make([]arrow.Array, len(o.names))
	for i, name := range o.names {
		j, err := f.column(name)
		if err != nil {
			return err
		}
		fields[i] = f.fields[j]
		cols[i] = f.cols[j]
	}
	f.fields = fields
	f.cols = cols
	return nil
}

type renameOp struct {
	from, to string
}

func (o renameOp) apply(f *frame) error {
	j, err := f.column(o.from)
	if err != nil {
		return err
	}
	f.fields[j].Name = o.to
	return nil
}

type sortKey struct {
	name string
	desc bool
}

type sortOp struct {
	keys []sortKey
}

func (o sortOp) apply(f *frame) error {
	type sortCol struct {
		arr  arrow.Array
		desc bool
	}
	cols := make([]sortCol, len(o.keys))
	for i, k := range o.keys {
		j, err := f.column(k.name)
		if err != nil {
			return err
		}
		cols[i] = sortCol{arr: f.cols[j], desc: k.desc}
	}
	slices.SortStableFunc(f.idx, func(a, b int) int {
		for _, c := range cols {
			va, vb := cell(c.arr, a), cell(c.arr, b)
			r := compare(va, vb)
			if c.desc && va != nil && vb != nil {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	})
	return nil
}

type reverseOp struct{}

func (reverseOp) apply(f *frame) error {
	slices.Reverse(f.idx)
	return nil
}

type limitOp struct {
	n int
}

func (o limitOp) apply(f *frame) error {
	if o.n < len(f.idx) {
		f.idx = f.idx[:o.n]
	}
	return nil
}

type filterKind uint8

const (
	opEquals filterKind = iota
	opNotEquals
	opGreater
	opLess
	opGreaterEqual
	opLessEqual
	opContains
	opNotContains
	opStartsWith
	opEndsWith
	opIsEmpty
	opIsNotEmpty
)

var filterOps = map[string]filterKind{
	"==":           opEquals,
	"equals":       opEquals,
	"!=":           opNotEquals,
	"not_equals":   opNotEquals,
	">":            opGreater,
	"gt":           opGreater,
	"<":            opLess,
	"lt":           opLess,
	">=":           opGreaterEqual,
	"gte":          opGreaterEqual,
	"<=":           opLessEqual,
	"lte":          opLessEqual,
	"contains":     opContains,
	"not_contains": opNotContains,
	"starts_with":  opStartsWith,
	"ends_with":    opEndsWith,
	"is_empty":     opIsEmpty,
	"is_not_empty": opIsNotEmpty,
}

func (k filterKind) unary() bool {
	return k == opIsEmpty || k == opIsNotEmpty
}

func (k filterKind) ordered() bool {
	return k <= opLessEqual
}

type filterOp struct {
	column string
	op     filterKind
	value  string
}

func (o filterOp) apply(f *frame) error {
	j, err := f.column(o.column)
	if err != nil {
		return err
	}
	arr := f.cols[j]
	var want any
	if o.op.ordered() {
		if want, err = coerce(arr.DataType(), o.value); err != nil {
			return err
		}
	}
	f.idx = slices.DeleteFunc(f.idx, func(i int) bool {
		return !o.match(cell(arr, i), want)
	})
	return nil
}

func (o filterOp) match(v, want any) bool {
	switch o.op {
	case opEquals:
		return compare(v, want) == 0
	case opNotEquals:
		return compare(v, want) != 0
	case opGreater:
		return compare(v, want) > 0
	case opLess:
		return compare(v, want) < 0
	case opGreaterEqual:
		return compare(v, want) >= 0
	case opLessEqual:
		return compare(v, want) <= 0
	case opContains:
		return strings.Contains(strings.ToLower(toString(v)), strings.ToLower(o.value))
	case opNotContains:
		return !strings.Contains(strings.ToLower(toString(v)), strings.ToLower(o.value))
	case opStartsWith:
		return strings.HasPrefix(strings.ToLower(toString(v)), strings.ToLower(o.value))
	case opEndsWith:
		return strings.HasSuffix(strings.ToLower(toString(v)), strings.ToLower(o.value))
	case opIsEmpty:
		return v == nil || v == ""
	case opIsNotEmpty:
		return v != nil && v != ""
	default:
		return false
	}
}

type matchOp struct {
	filter map[string]any
}

func (o matchOp) apply(f *frame) error {
	var err error
	doc := make(map[string]any, len(f.fields))
	f.idx = slices.DeleteFunc(f.idx, func(i int) bool {
		if err != nil {
			return true
		}
		clear(doc)
		for j := range f.fields {
			doc[f.fields[j].Name] = jsonValue(cell(f.cols[j], i))
		}
		ok, e := connor.Match(o.filter, doc)
		if e != nil {
			err = e
			return true
		}
		return !ok
	})
	return err
}

// jsonValue converts integers to float64, the number type of decoded JSON
// the filter document is compared against.
func jsonValue(v any) any {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return v
	}
}
