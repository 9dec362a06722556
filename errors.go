package colgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/colgo/blobstore"
	"github.com/hupe1980/colgo/model"
)

// Error kinds of the storage core, re-exported for callers that only import
// the root package.
var (
	ErrSchemaMismatch       = model.ErrSchemaMismatch
	ErrIndexOutOfBounds     = model.ErrIndexOutOfBounds
	ErrUnsupportedNullValue = model.ErrUnsupportedNullValue
	ErrCapacityExceeded     = model.ErrCapacityExceeded
	ErrCorruptFormat        = model.ErrCorruptFormat
	ErrIO                   = model.ErrIO

	// ErrConcurrentModification is returned by Save when another writer
	// committed a newer catalog version. Load and retry.
	ErrConcurrentModification = blobstore.ErrConcurrentModification

	// ErrInvalidTableName is returned for empty names, names longer than 255
	// bytes and names containing '/'.
	ErrInvalidTableName = errors.New("invalid table name")
)

// ErrTableExists indicates that a table name is already taken.
type ErrTableExists struct {
	Name string
}

func (e *ErrTableExists) Error() string {
	return fmt.Sprintf("table %q already exists", e.Name)
}

// ErrTableNotFound indicates that no table has the given name.
type ErrTableNotFound struct {
	Name string
}

func (e *ErrTableNotFound) Error() string {
	return fmt.Sprintf("table %q not found", e.Name)
}
