// Handles reflection-based rows for plain Go structs.

package row

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// Struct adapts a plain Go struct to Row.
//
// Columns are the properties of the JSON Schema reflected from T, in field
// order: exported fields named by their `json` tag, fields tagged `json:"-"`
// skipped. Field types map to literal types as follows:
//
//   - types implementing fmt.Stringer (e.g. time.Duration): string
//   - string and []byte (hex encoded): string
//   - unsigned integers: uint
//   - signed integers: int
//   - floats: float
//   - bool: bool
//   - pointers to any of the above: the same type, nil being null
//
// Other field types are rejected by StructSchema; Schema panics on them.
type Struct[T any] struct {
	V T
}

// Schema implements Row.
func (Struct[T]) Schema() Schema {
	l, err := layoutOf[T]()
	if err != nil {
		panic(err)
	}
	return l.schema
}

// Fields implements Row.
func (s Struct[T]) Fields() []Value {
	l, err := layoutOf[T]()
	if err != nil {
		panic(err)
	}
	v := reflect.ValueOf(&s.V).Elem()
	out := make([]Value, len(l.fields))
	for i := range l.fields {
		f := &l.fields[i]
		fv, err := v.FieldByIndexErr(f.index)
		if err != nil {
			// Nil embedded pointer.
			continue
		}
		out[i] = f.conv(fv)
	}
	return out
}

// DisplayValue implements Displayer by delegating to T when T implements it.
func (Struct[T]) DisplayValue(header string, v Value) string {
	var zero T
	return Display(zero, header, v)
}

// StructSchema returns the schema Struct[T] exposes, or an error if T is not a
// struct or has a field of an unsupported type.
func StructSchema[T any]() (Schema, error) {
	l, err := layoutOf[T]()
	if err != nil {
		return nil, err
	}
	return l.schema, nil
}

type fieldLayout struct {
	index []int
	conv  func(reflect.Value) Value
}

type layout struct {
	schema Schema
	fields []fieldLayout
}

type layoutResult struct {
	l   *layout
	err error
}

var layouts sync.Map // reflect.Type -> layoutResult

func layoutOf[T any]() (*layout, error) {
	t := reflect.TypeFor[T]()
	if r, ok := layouts.Load(t); ok {
		res := r.(layoutResult)
		return res.l, res.err
	}
	l, err := buildLayout(t)
	r, _ := layouts.LoadOrStore(t, layoutResult{l: l, err: err})
	res := r.(layoutResult)
	return res.l, res.err
}

func buildLayout(t reflect.Type) (*layout, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("row: type must be a struct, got %s", t.Kind())
	}

	// Generate JSON Schema from type with inline properties (no $ref).
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schema := r.ReflectFromType(t)

	// Shallowest field wins for a given JSON name, like encoding/json.
	byName := map[string]reflect.StructField{}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() || f.Tag.Get("json") == "-" {
			continue
		}
		name := jsonFieldName(&f)
		if prev, ok := byName[name]; ok && len(prev.Index) <= len(f.Index) {
			continue
		}
		byName[name] = f
	}

	l := &layout{}
	if schema.Properties == nil {
		return nil, fmt.Errorf("row: %s has no exported field", t)
	}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		field, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("row: %s: no field for property %q", t, name)
		}
		typ, conv, err := converterFor(field.Type)
		if err != nil {
			return nil, fmt.Errorf("row: %s.%s: %w", t, field.Name, err)
		}
		l.schema = append(l.schema, Column{Name: name, Type: typ})
		l.fields = append(l.fields, fieldLayout{index: field.Index, conv: conv})
	}
	if err := l.schema.Validate(); err != nil {
		return nil, fmt.Errorf("row: %s: %w", t, err)
	}
	return l, nil
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

var stringerType = reflect.TypeFor[fmt.Stringer]()

// converterFor maps a Go field type to its literal type.
func converterFor(t reflect.Type) (Type, func(reflect.Value) Value, error) {
	if t.Kind() == reflect.Pointer {
		typ, conv, err := converterFor(t.Elem())
		if err != nil {
			return 0, nil, err
		}
		return typ, func(v reflect.Value) Value {
			if v.IsNil() {
				return Null()
			}
			return conv(v.Elem())
		}, nil
	}
	if t.Implements(stringerType) {
		return TypeString, func(v reflect.Value) Value {
			return String(v.Interface().(fmt.Stringer).String())
		}, nil
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return TypeString, func(v reflect.Value) Value {
			return String(hex.EncodeToString(v.Bytes()))
		}, nil
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString, func(v reflect.Value) Value { return String(v.String()) }, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return TypeUInt, func(v reflect.Value) Value { return UInt(v.Uint()) }, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return TypeInt, func(v reflect.Value) Value { return Int(v.Int()) }, nil
	case reflect.Float32, reflect.Float64:
		return TypeFloat, func(v reflect.Value) Value { return Float(v.Float()) }, nil
	case reflect.Bool:
		return TypeBool, func(v reflect.Value) Value { return Bool(v.Bool()) }, nil
	default:
		return 0, nil, fmt.Errorf("unsupported field type %s", t)
	}
}
