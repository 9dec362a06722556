package model

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Scalar is the set of Go types backing the column data types.
type Scalar interface {
	int32 | int64 | float32 | float64 | string
}

// Value is a tagged variant holding one typed value or NULL.
//
// The zero Value is NULL.
type Value struct {
	typ  DataType
	bits uint64
	str  string
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Int returns an int32 value.
func Int(v int32) Value { return Value{typ: TypeInt, bits: uint64(int64(v))} }

// Long returns an int64 value.
func Long(v int64) Value { return Value{typ: TypeLong, bits: uint64(v)} }

// Float returns a float32 value.
func Float(v float32) Value { return Value{typ: TypeFloat, bits: uint64(math.Float32bits(v))} }

// Double returns a float64 value.
func Double(v float64) Value { return Value{typ: TypeDouble, bits: math.Float64bits(v)} }

// String returns a string value.
func String(v string) Value { return Value{typ: TypeString, str: v} }

// ValueOf wraps a scalar into a Value.
func ValueOf[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case int32:
		return Int(x)
	case int64:
		return Long(x)
	case float32:
		return Float(x)
	case float64:
		return Double(x)
	case string:
		return String(x)
	}
	panic("unreachable")
}

// TypeOf returns the DataType backed by T.
func TypeOf[T Scalar]() DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return TypeInt
	case int64:
		return TypeLong
	case float32:
		return TypeFloat
	case float64:
		return TypeDouble
	default:
		return TypeString
	}
}

// As extracts a scalar of type T. It returns false for NULL or a type mismatch.
func As[T Scalar](v Value) (T, bool) {
	var out T
	if v.typ != TypeOf[T]() {
		return out, false
	}
	switch p := any(&out).(type) {
	case *int32:
		*p = v.AsInt()
	case *int64:
		*p = v.AsLong()
	case *float32:
		*p = v.AsFloat()
	case *float64:
		*p = v.AsDouble()
	case *string:
		*p = v.str
	}
	return out, true
}

// Type returns the data type of v (TypeNull for NULL).
func (v Value) Type() DataType { return v.typ }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsInt returns the int32 payload. The result is undefined for other types.
func (v Value) AsInt() int32 { return int32(int64(v.bits)) }

// AsLong returns the int64 payload.
func (v Value) AsLong() int64 { return int64(v.bits) }

// AsFloat returns the float32 payload.
func (v Value) AsFloat() float32 { return math.Float32frombits(uint32(v.bits)) }

// AsDouble returns the float64 payload.
func (v Value) AsDouble() float64 { return math.Float64frombits(v.bits) }

// AsString returns the string payload.
func (v Value) AsString() string { return v.str }

// Compare orders two values of the same type. NULL sorts before everything.
// Comparing different non-null types orders by type tag.
func (v Value) Compare(o Value) int {
	if v.typ != o.typ {
		return cmp.Compare(v.typ, o.typ)
	}
	switch v.typ {
	case TypeInt:
		return cmp.Compare(v.AsInt(), o.AsInt())
	case TypeLong:
		return cmp.Compare(v.AsLong(), o.AsLong())
	case TypeFloat:
		return cmp.Compare(v.AsFloat(), o.AsFloat())
	case TypeDouble:
		return cmp.Compare(v.AsDouble(), o.AsDouble())
	case TypeString:
		return cmp.Compare(v.str, o.str)
	default:
		return 0
	}
}

// Equal reports whether two values have the same type and Compare as equal.
// -0 and +0 are equal, and so are all NaNs, matching dictionary encoding.
func (v Value) Equal(o Value) bool {
	return v.typ == o.typ && v.keyBits() == o.keyBits() && v.str == o.str
}

// keyBits returns the payload with -0 folded into +0 and every NaN folded
// into one canonical NaN.
func (v Value) keyBits() uint64 {
	switch v.typ {
	case TypeFloat:
		f := v.AsFloat()
		if f == 0 {
			return 0
		}
		if f != f {
			return uint64(math.Float32bits(float32(math.NaN())))
		}
	case TypeDouble:
		f := v.AsDouble()
		if f == 0 {
			return 0
		}
		if math.IsNaN(f) {
			return math.Float64bits(math.NaN())
		}
	}
	return v.bits
}

// AppendKey appends a canonical, self-delimiting byte encoding of v to dst.
//
// Two values produce the same key iff they are Equal, which makes concatenated
// keys of a row usable as set members.
func (v Value) AppendKey(dst []byte) []byte {
	dst = append(dst, byte(v.typ))
	switch v.typ {
	case TypeNull:
	case TypeString:
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.str)))
		dst = append(dst, v.str...)
	default:
		dst = binary.LittleEndian.AppendUint64(dst, v.keyBits())
	}
	return dst
}

func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "NULL"
	case TypeInt:
		return strconv.FormatInt(int64(v.AsInt()), 10)
	case TypeLong:
		return strconv.FormatInt(v.AsLong(), 10)
	case TypeFloat:
		return strconv.FormatFloat(float64(v.AsFloat()), 'g', -1, 32)
	case TypeDouble:
		return strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
	case TypeString:
		return v.str
	default:
		return fmt.Sprintf("Value(%d)", v.typ)
	}
}

// CheckType verifies that v can be stored in a column of the given definition.
func CheckType(def ColumnDefinition, v Value) error {
	if v.IsNull() {
		if !def.Nullable {
			return fmt.Errorf("%w: NULL in non-nullable column %q", ErrSchemaMismatch, def.Name)
		}
		return nil
	}
	if v.typ != def.Type {
		return fmt.Errorf("%w: column %q expects %s, got %s", ErrSchemaMismatch, def.Name, def.Type, v.typ)
	}
	return nil
}
