// Provides literal types and the tagged literal value.

package row

import (
	"math"
	"strconv"
)

// Type is the literal type of a column.
type Type uint8

// Literal types. The zero Type is invalid.
const (
	TypeString Type = iota + 1
	TypeUInt
	TypeInt
	TypeFloat
	TypeBool
)

var typeNames = [...]string{
	TypeString: "string",
	TypeUInt:   "uint",
	TypeInt:    "int",
	TypeFloat:  "float",
	TypeBool:   "bool",
}

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return "invalid(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the literal types.
func (t Type) Valid() bool {
	return t >= TypeString && t <= TypeBool
}

// Numeric reports whether t is a number or a boolean. Numeric columns are
// right aligned when rendered.
func (t Type) Numeric() bool {
	return t == TypeUInt || t == TypeInt || t == TypeFloat || t == TypeBool
}

// Value is a literal value tagged with its Type.
//
// The zero Value is null.
type Value struct {
	typ Type
	s   string
	u   uint64 // Holds the bits of int, uint, float and bool payloads.
}

// String returns a string value.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// UInt returns an unsigned integer value.
func UInt(u uint64) Value { return Value{typ: TypeUInt, u: u} }

// Int returns a signed integer value.
func Int(i int64) Value { return Value{typ: TypeInt, u: uint64(i)} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{typ: TypeFloat, u: math.Float64bits(f)} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{typ: TypeBool}
	if b {
		v.u = 1
	}
	return v
}

// Null returns the null value.
func Null() Value { return Value{} }

// Type returns the literal type of v, or the invalid zero Type when v is null.
func (v Value) Type() Type {
	return v.typ
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.typ == 0
}

func (v Value) got() string {
	if v.IsNull() {
		return "null"
	}
	return v.typ.String()
}

func (v Value) check(want Type) error {
	if v.typ != want {
		return &ConversionError{Want: want, Got: v.got()}
	}
	return nil
}

// AsString returns the payload of a string value.
func (v Value) AsString() (string, error) {
	if err := v.check(TypeString); err != nil {
		return "", err
	}
	return v.s, nil
}

// AsUInt returns the payload of an unsigned integer value.
func (v Value) AsUInt() (uint64, error) {
	if err := v.check(TypeUInt); err != nil {
		return 0, err
	}
	return v.u, nil
}

// AsInt returns the payload of a signed integer value.
func (v Value) AsInt() (int64, error) {
	if err := v.check(TypeInt); err != nil {
		return 0, err
	}
	return int64(v.u), nil
}

// AsFloat returns the payload of a floating point value.
func (v Value) AsFloat() (float64, error) {
	if err := v.check(TypeFloat); err != nil {
		return 0, err
	}
	return math.Float64frombits(v.u), nil
}

// AsBool returns the payload of a boolean value.
func (v Value) AsBool() (bool, error) {
	if err := v.check(TypeBool); err != nil {
		return false, err
	}
	return v.u != 0, nil
}

// Any returns the payload as string, uint64, int64, float64 or bool, or nil
// for null.
func (v Value) Any() any {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeUInt:
		return v.u
	case TypeInt:
		return int64(v.u)
	case TypeFloat:
		return math.Float64frombits(v.u)
	case TypeBool:
		return v.u != 0
	default:
		return nil
	}
}

// String returns the natural text form of the payload. Null is the empty
// string.
func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeUInt:
		return strconv.FormatUint(v.u, 10)
	case TypeInt:
		return strconv.FormatInt(int64(v.u), 10)
	case TypeFloat:
		f := math.Float64frombits(v.u)
		switch {
		case math.IsInf(f, 1):
			return "inf"
		case math.IsInf(f, -1):
			return "-inf"
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case TypeBool:
		return strconv.FormatBool(v.u != 0)
	default:
		return ""
	}
}
