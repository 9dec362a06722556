package storage

import (
	"fmt"

	"github.com/hupe1980/colgo/internal/bitmap"
	"github.com/hupe1980/colgo/model"
)

// ValueColumn stores raw values of type T.
//
// Nullable columns track NULL rows in a roaring bitmap; the value slot of a
// NULL row holds the zero value of T.
type ValueColumn[T model.Scalar] struct {
	values   []T
	nullable bool
	nulls    *bitmap.NullBitmap
}

// NewValueColumn creates an empty column with room for capacity rows.
func NewValueColumn[T model.Scalar](nullable bool, capacity int) *ValueColumn[T] {
	c := &ValueColumn[T]{
		values:   make([]T, 0, max(capacity, 0)),
		nullable: nullable,
	}
	if nullable {
		c.nulls = bitmap.NewNullBitmap()
	}
	return c
}

// NewValueColumnFrom wraps values without copying them. The column takes
// ownership of the slice.
func NewValueColumnFrom[T model.Scalar](values []T, nullable bool) *ValueColumn[T] {
	c := &ValueColumn[T]{values: values, nullable: nullable}
	if nullable {
		c.nulls = bitmap.NewNullBitmap()
	}
	return c
}

// NewValueColumnOf creates an empty Value column for a runtime data type.
func NewValueColumnOf(typ model.DataType, nullable bool, capacity int) (Column, error) {
	switch typ {
	case model.TypeInt:
		return NewValueColumn[int32](nullable, capacity), nil
	case model.TypeLong:
		return NewValueColumn[int64](nullable, capacity), nil
	case model.TypeFloat:
		return NewValueColumn[float32](nullable, capacity), nil
	case model.TypeDouble:
		return NewValueColumn[float64](nullable, capacity), nil
	case model.TypeString:
		return NewValueColumn[string](nullable, capacity), nil
	default:
		return nil, fmt.Errorf("%w: no value column for type %s", model.ErrSchemaMismatch, typ)
	}
}

func (c *ValueColumn[T]) Len() int                 { return len(c.values) }
func (c *ValueColumn[T]) DataType() model.DataType { return model.TypeOf[T]() }
func (c *ValueColumn[T]) Encoding() EncodingType   { return EncodingUnencoded }

// Nullable reports whether the column accepts NULL.
func (c *ValueColumn[T]) Nullable() bool { return c.nullable }

// IsNull reports whether row i is NULL.
func (c *ValueColumn[T]) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.IsNull(uint32(i))
}

// NullCount returns the number of NULL rows.
func (c *ValueColumn[T]) NullCount() int {
	if c.nulls == nil {
		return 0
	}
	return c.nulls.Count()
}

// Values returns the backing slice. Callers must not modify it.
func (c *ValueColumn[T]) Values() []T { return c.values }

// Get returns the raw value of row i. NULL rows yield the zero value.
func (c *ValueColumn[T]) Get(i int) T { return c.values[i] }

func (c *ValueColumn[T]) Value(i int) (model.Value, error) {
	if err := checkRow(i, len(c.values)); err != nil {
		return model.Value{}, err
	}
	if c.IsNull(i) {
		return model.Null(), nil
	}
	return model.ValueOf(c.values[i]), nil
}

// Append adds v, which must be NULL or of type T.
func (c *ValueColumn[T]) Append(v model.Value) error {
	if v.IsNull() {
		return c.AppendNull()
	}
	x, ok := model.As[T](v)
	if !ok {
		return fmt.Errorf("%w: %s column cannot hold %s", model.ErrSchemaMismatch, c.DataType(), v.Type())
	}
	c.values = append(c.values, x)
	return nil
}

// AppendValue adds a non-null value.
func (c *ValueColumn[T]) AppendValue(v T) {
	c.values = append(c.values, v)
}

// AppendNull adds a NULL row.
func (c *ValueColumn[T]) AppendNull() error {
	if !c.nullable {
		return fmt.Errorf("%w: NULL in non-nullable %s column", model.ErrSchemaMismatch, c.DataType())
	}
	var zero T
	c.nulls.Set(uint32(len(c.values)))
	c.values = append(c.values, zero)
	return nil
}

func (c *ValueColumn[T]) MemoryUsage() int {
	n := sliceSize(c.values)
	if c.nulls != nil {
		n += c.nulls.SizeInBytes()
	}
	return n
}

func (c *ValueColumn[T]) Copy() Column {
	cp := &ValueColumn[T]{
		values:   append([]T(nil), c.values...),
		nullable: c.nullable,
	}
	if c.nulls != nil {
		cp.nulls = c.nulls.Clone()
	}
	return cp
}

