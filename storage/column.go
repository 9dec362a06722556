package storage

import (
	"fmt"

	"github.com/hupe1980/colgo/model"
)

// EncodingType identifies the physical representation of a column.
//
// The numeric values are persisted as one-byte tags and must not change.
type EncodingType uint8

const (
	// EncodingUnencoded is a plain Value column.
	EncodingUnencoded EncodingType = 0
	// EncodingDictionary is a sorted dictionary plus attribute vector.
	EncodingDictionary EncodingType = 1
	// EncodingFixedStringDictionary is a dictionary backed by a fixed-width string pool.
	EncodingFixedStringDictionary EncodingType = 2
	// EncodingReference is an indirection into another table. It is never persisted.
	EncodingReference EncodingType = 3
)

func (e EncodingType) String() string {
	switch e {
	case EncodingUnencoded:
		return "unencoded"
	case EncodingDictionary:
		return "dictionary"
	case EncodingFixedStringDictionary:
		return "fixed-string-dictionary"
	case EncodingReference:
		return "reference"
	default:
		return fmt.Sprintf("EncodingType(%d)", uint8(e))
	}
}

// Column is one column of one chunk.
//
// The set of implementations is closed: *ValueColumn[T], *DictionaryColumn[T],
// *FixedStringDictionaryColumn and *ReferenceColumn. Switch on Encoding (or use
// a type switch) to reach encoding-specific operations.
//
// Columns held by a sealed chunk are immutable and safe for concurrent reads.
type Column interface {
	// Len returns the number of rows.
	Len() int
	// DataType returns the logical value type.
	DataType() model.DataType
	// Encoding returns the physical representation.
	Encoding() EncodingType
	// Value materializes row i.
	Value(i int) (model.Value, error)
	// MemoryUsage estimates the heap bytes held by the column.
	MemoryUsage() int
	// Copy returns an independent column with the same content.
	Copy() Column
}

// Values materializes every row of col.
func Values(col Column) ([]model.Value, error) {
	out := make([]model.Value, col.Len())
	for i := range out {
		v, err := col.Value(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func checkRow(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: row %d of %d", model.ErrIndexOutOfBounds, i, n)
	}
	return nil
}

// sizeOf returns the in-memory width of a scalar, counting string headers and bytes.
func sizeOf[T model.Scalar](v T) int {
	switch x := any(v).(type) {
	case int32, float32:
		return 4
	case int64, float64:
		return 8
	case string:
		return 16 + len(x)
	}
	return 0
}

func sliceSize[T model.Scalar](vs []T) int {
	var zero T
	if _, ok := any(zero).(string); !ok {
		return cap(vs) * sizeOf(zero)
	}
	n := 0
	for _, v := range vs {
		n += sizeOf(v)
	}
	return n + (cap(vs)-len(vs))*16
}
