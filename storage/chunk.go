package storage

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/colgo/model"
)

var (
	// ErrChunkMutable is returned when an operation requires a sealed chunk.
	ErrChunkMutable = errors.New("chunk is still open for appends")

	// ErrPartitioned is returned by chunk-level appends on partitioned tables.
	ErrPartitioned = errors.New("table is partitioned")
)

// columnSlot holds one published column.
type columnSlot struct {
	col Column
}

// Chunk is a batch of at most chunk-size rows with one column per table column.
//
// A chunk starts mutable, owned by its partition, and is sealed once full or
// when the table seals its open chunks. Sealing is one-way. Sealed chunks
// never change their rows; encoders may swap a column for an equivalent
// encoding through ReplaceColumn, which atomically publishes the new column.
//
// Reads of sealed chunks need no synchronization. Reads of a mutable chunk
// must go through Table.Value.
type Chunk struct {
	id      model.ChunkID
	owner   *Partition // nil for chunks added through Table.AppendChunk
	columns []atomic.Pointer[columnSlot]
	size    atomic.Int64
	sealed  atomic.Bool
}

func newChunk(id model.ChunkID, owner *Partition, cols []Column) *Chunk {
	c := &Chunk{
		id:      id,
		owner:   owner,
		columns: make([]atomic.Pointer[columnSlot], len(cols)),
	}
	for i, col := range cols {
		c.columns[i].Store(&columnSlot{col: col})
	}
	if len(cols) > 0 {
		c.size.Store(int64(cols[0].Len()))
	}
	return c
}

// ID returns the table-wide chunk id.
func (c *Chunk) ID() model.ChunkID { return c.id }

// Size returns the number of rows.
func (c *Chunk) Size() int { return int(c.size.Load()) }

// ColumnCount returns the number of columns.
func (c *Chunk) ColumnCount() int { return len(c.columns) }

// Sealed reports whether the chunk no longer accepts appends.
func (c *Chunk) Sealed() bool { return c.sealed.Load() }

// Column returns the current column id. It returns nil if id is out of range.
func (c *Chunk) Column(id model.ColumnID) Column {
	if int(id) >= len(c.columns) {
		return nil
	}
	return c.columns[id].Load().col
}

// Columns returns a snapshot of all columns.
func (c *Chunk) Columns() []Column {
	out := make([]Column, len(c.columns))
	for i := range c.columns {
		out[i] = c.columns[i].Load().col
	}
	return out
}

// ReplaceColumn publishes col in place of column id. The chunk must be sealed
// and col must have the same length and data type. Readers that already hold
// the old column keep reading it unchanged.
func (c *Chunk) ReplaceColumn(id model.ColumnID, col Column) error {
	if !c.Sealed() {
		return fmt.Errorf("%w: chunk %d", ErrChunkMutable, c.id)
	}
	if int(id) >= len(c.columns) {
		return fmt.Errorf("%w: column %d of %d", model.ErrIndexOutOfBounds, id, len(c.columns))
	}
	old := c.columns[id].Load().col
	if col.Len() != old.Len() || col.DataType() != old.DataType() {
		return fmt.Errorf("%w: replacing %s column of %d rows with %s column of %d rows",
			model.ErrSchemaMismatch, old.DataType(), old.Len(), col.DataType(), col.Len())
	}
	c.columns[id].Store(&columnSlot{col: col})
	return nil
}

// MemoryUsage sums the estimates of all columns.
func (c *Chunk) MemoryUsage() int {
	n := 0
	for i := range c.columns {
		n += c.columns[i].Load().col.MemoryUsage()
	}
	return n
}

// valueAppender is implemented by every *ValueColumn[T].
type valueAppender interface {
	Column
	Append(v model.Value) error
	sealed() Column
}

func (c *ValueColumn[T]) sealed() Column {
	s := &ValueColumn[T]{values: c.values[:len(c.values):len(c.values)], nullable: c.nullable}
	if c.nulls != nil {
		s.nulls = c.nulls.Clone()
		s.nulls.Optimize()
	}
	return s
}

// mutableChunk is the append handle a partition keeps for its open chunk.
// All methods must be called with the partition lock held.
type mutableChunk struct {
	chunk     *Chunk
	appenders []valueAppender
}

func newMutableChunk(id model.ChunkID, owner *Partition, defs []model.ColumnDefinition, capacity int) (*mutableChunk, error) {
	appenders := make([]valueAppender, len(defs))
	cols := make([]Column, len(defs))
	for i, def := range defs {
		col, err := NewValueColumnOf(def.Type, def.Nullable, capacity)
		if err != nil {
			return nil, err
		}
		appenders[i] = col.(valueAppender)
		cols[i] = col
	}
	return &mutableChunk{chunk: newChunk(id, owner, cols), appenders: appenders}, nil
}

// reopenChunk turns a restored chunk of Value columns back into an append handle.
func reopenChunk(c *Chunk) (*mutableChunk, bool) {
	appenders := make([]valueAppender, len(c.columns))
	for i := range c.columns {
		a, ok := c.columns[i].Load().col.(valueAppender)
		if !ok {
			return nil, false
		}
		appenders[i] = a
	}
	c.sealed.Store(false)
	return &mutableChunk{chunk: c, appenders: appenders}, true
}

// append stores a row that has already been validated against the schema.
func (m *mutableChunk) append(row []model.Value) error {
	for i, a := range m.appenders {
		if err := a.Append(row[i]); err != nil {
			return err
		}
	}
	m.chunk.size.Add(1)
	return nil
}

// seal publishes right-sized columns and closes the chunk for appends.
func (m *mutableChunk) seal() {
	for i, a := range m.appenders {
		m.chunk.columns[i].Store(&columnSlot{col: a.sealed()})
	}
	m.chunk.sealed.Store(true)
	m.appenders = nil
}
