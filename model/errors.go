package model

import "errors"

var (
	// ErrSchemaMismatch is returned when a row or column does not match the table schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIndexOutOfBounds is returned for invalid chunk, partition, column or row ids.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrUnsupportedNullValue is returned when dictionary encoding or binary export
	// encounters a NULL value.
	ErrUnsupportedNullValue = errors.New("null values are not supported")

	// ErrCapacityExceeded is returned when a value does not fit a fixed-size slot.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrCorruptFormat is returned when a byte stream has unknown tags, inconsistent
	// counts or is truncated.
	ErrCorruptFormat = errors.New("corrupt format")

	// ErrIO is returned when the underlying stream fails.
	ErrIO = errors.New("i/o error")
)
