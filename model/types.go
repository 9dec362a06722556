package model

import (
	"fmt"
	"math"
)

// ChunkID identifies a chunk within a table.
type ChunkID uint32

// ColumnID is the position of a column in a table schema.
type ColumnID uint16

// PartitionID identifies a partition within a table.
type PartitionID uint16

// ChunkOffset is a row offset within a chunk.
type ChunkOffset uint32

// ValueID is an index into a column dictionary.
type ValueID uint32

// InvalidValueID is returned by dictionary lookups that find no match.
const InvalidValueID ValueID = math.MaxUint32

// RowID is the physical address of a row.
type RowID struct {
	ChunkID ChunkID
	Offset  ChunkOffset
}

// String returns a string representation of the RowID.
func (r RowID) String() string {
	return fmt.Sprintf("Row(%d:%d)", r.ChunkID, r.Offset)
}

// DataType enumerates the column value types.
//
// The numeric values are persisted as one-byte type tags and must not change.
type DataType uint8

const (
	// TypeNull is the type of the NULL value. It is never a column type.
	TypeNull DataType = 0
	// TypeInt is a 32-bit signed integer.
	TypeInt DataType = 1
	// TypeLong is a 64-bit signed integer.
	TypeLong DataType = 2
	// TypeFloat is a 32-bit IEEE float.
	TypeFloat DataType = 3
	// TypeDouble is a 64-bit IEEE float.
	TypeDouble DataType = 4
	// TypeString is a variable-length byte string.
	TypeString DataType = 5
)

// Valid reports whether d can be used as a column type.
func (d DataType) Valid() bool {
	return d >= TypeInt && d <= TypeString
}

// FixedWidth returns the encoded width in bytes, or 0 for strings and NULL.
func (d DataType) FixedWidth() int {
	switch d {
	case TypeInt, TypeFloat:
		return 4
	case TypeLong, TypeDouble:
		return 8
	default:
		return 0
	}
}

func (d DataType) String() string {
	switch d {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
}

// ParseDataType parses the names returned by DataType.String.
func ParseDataType(s string) (DataType, error) {
	for d := TypeInt; d <= TypeString; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return TypeNull, fmt.Errorf("unknown data type %q", s)
}

// ColumnDefinition describes one column of a table.
type ColumnDefinition struct {
	Name     string
	Type     DataType
	Nullable bool
}

// MaxColumnNameLength is the longest column name the binary format can hold.
const MaxColumnNameLength = math.MaxUint8

// Validate checks that the definition can be stored and persisted.
func (c ColumnDefinition) Validate() error {
	if c.Name == "" || len(c.Name) > MaxColumnNameLength {
		return fmt.Errorf("%w: column name must be 1..%d bytes, got %d", ErrSchemaMismatch, MaxColumnNameLength, len(c.Name))
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: column %q has invalid type %s", ErrSchemaMismatch, c.Name, c.Type)
	}
	return nil
}
