package storage

import (
	"fmt"

	"github.com/hupe1980/colgo/internal/bitmap"
	"github.com/hupe1980/colgo/model"
)

// EncodeColumn builds a new column holding the values of col in the requested
// encoding. col is not modified.
//
// Dictionary encodings reject NULL rows with model.ErrUnsupportedNullValue.
// EncodingFixedStringDictionary requires a string column. EncodingUnencoded
// decodes back to a Value column. Reference columns cannot be produced here.
func EncodeColumn(col Column, enc EncodingType) (Column, error) {
	switch col.DataType() {
	case model.TypeInt:
		return encodeTyped[int32](col, enc)
	case model.TypeLong:
		return encodeTyped[int64](col, enc)
	case model.TypeFloat:
		return encodeTyped[float32](col, enc)
	case model.TypeDouble:
		return encodeTyped[float64](col, enc)
	case model.TypeString:
		return encodeTyped[string](col, enc)
	default:
		return nil, fmt.Errorf("%w: cannot encode %s column", model.ErrSchemaMismatch, col.DataType())
	}
}

func encodeTyped[T model.Scalar](col Column, enc EncodingType) (Column, error) {
	switch enc {
	case EncodingUnencoded:
		return decodeValues[T](col)
	case EncodingDictionary:
		vs, err := nonNullValues[T](col)
		if err != nil {
			return nil, err
		}
		return EncodeDictionary(vs), nil
	case EncodingFixedStringDictionary:
		vs, err := nonNullValues[T](col)
		if err != nil {
			return nil, err
		}
		strs, ok := any(vs).([]string)
		if !ok {
			return nil, fmt.Errorf("%w: fixed-string dictionary needs a string column, got %s", model.ErrSchemaMismatch, col.DataType())
		}
		fc, err := EncodeFixedStringDictionary(strs)
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode into %s", model.ErrSchemaMismatch, enc)
	}
}

// nonNullValues extracts the values of col, failing on the first NULL.
func nonNullValues[T model.Scalar](col Column) ([]T, error) {
	if vc, ok := col.(*ValueColumn[T]); ok {
		if vc.NullCount() > 0 {
			return nil, fmt.Errorf("%w: %d NULL rows", model.ErrUnsupportedNullValue, vc.NullCount())
		}
		return vc.values, nil
	}
	out := make([]T, col.Len())
	for i := range out {
		v, err := col.Value(i)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			return nil, fmt.Errorf("%w: row %d", model.ErrUnsupportedNullValue, i)
		}
		x, ok := model.As[T](v)
		if !ok {
			return nil, fmt.Errorf("%w: row %d has type %s, want %s", model.ErrSchemaMismatch, i, v.Type(), model.TypeOf[T]())
		}
		out[i] = x
	}
	return out, nil
}

func decodeValues[T model.Scalar](col Column) (Column, error) {
	if vc, ok := col.(*ValueColumn[T]); ok {
		return vc.Copy(), nil
	}
	n := col.Len()
	out := NewValueColumn[T](false, n)
	for i := range n {
		v, err := col.Value(i)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			if out.nulls == nil {
				out.nullable = true
				out.nulls = bitmap.NewNullBitmap()
			}
			if err := out.AppendNull(); err != nil {
				return nil, err
			}
			continue
		}
		if err := out.Append(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
