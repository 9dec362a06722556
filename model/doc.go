// Package model defines core types used throughout colgo.
//
// # Identity Types
//
//   - ChunkID: Table-wide chunk identifier (uint32)
//   - ColumnID: Position of a column in the table schema (uint16)
//   - PartitionID: Partition index assigned by a partitioning scheme (uint16)
//   - ChunkOffset: Row offset within one chunk (uint32)
//   - RowID: Physical address of a row (ChunkID, ChunkOffset)
//   - ValueID: Index into a column dictionary; InvalidValueID means "not found"
//
// # Values
//
// Value is a small tagged variant over the supported data types (int32, int64,
// float32, float64, string) plus NULL:
//
//	v := model.Long(42)
//	s := model.String("hasso")
//	n := model.Null()
//
// Values of the same type are totally ordered via Compare. AppendKey produces a
// canonical byte encoding used for hashing and row-set membership tests.
//
// # Errors
//
// The error kinds shared by all storage packages are defined here as sentinel
// errors (ErrSchemaMismatch, ErrIndexOutOfBounds, ...). Call sites wrap them, so
// always test with errors.Is.
package model
