package storage

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/partitioning"
)

// DefaultChunkSize is the row capacity of a chunk unless WithChunkSize is given.
const DefaultChunkSize = 100_000

type tableOptions struct {
	chunkSize int
	scheme    *partitioning.Scheme
	logger    *slog.Logger
}

// TableOption configures NewTable.
type TableOption func(*tableOptions)

// WithChunkSize sets the maximum number of rows per chunk.
func WithChunkSize(n int) TableOption {
	return func(o *tableOptions) {
		o.chunkSize = n
	}
}

// WithPartitioning sets the partitioning scheme. The default is partitioning.Null().
func WithPartitioning(s *partitioning.Scheme) TableOption {
	return func(o *tableOptions) {
		o.scheme = s
	}
}

// WithLogger sets the logger used for chunk lifecycle events.
func WithLogger(l *slog.Logger) TableOption {
	return func(o *tableOptions) {
		o.logger = l
	}
}

// Partition owns an ordered sequence of chunks, the last of which may be open.
type Partition struct {
	id model.PartitionID

	mu       sync.Mutex
	chunkIDs []model.ChunkID
	open     *mutableChunk
}

// ID returns the partition id.
func (p *Partition) ID() model.PartitionID { return p.id }

// ChunkIDs returns the ids of the partition's chunks in append order.
func (p *Partition) ChunkIDs() []model.ChunkID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.chunkIDs)
}

// ChunkCount returns the number of chunks in the partition.
func (p *Partition) ChunkCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chunkIDs)
}

// Table is a schema plus partitions of chunks.
//
// Appends to different partitions proceed in parallel; appends to one partition
// are serialized by the partition lock. Lock order is partition, then table.
type Table struct {
	defs      []model.ColumnDefinition
	chunkSize int
	scheme    *partitioning.Scheme
	logger    *slog.Logger

	partitions []*Partition

	mu     sync.RWMutex
	chunks []*Chunk
}

// NewTable creates an empty table.
func NewTable(defs []model.ColumnDefinition, opts ...TableOption) (*Table, error) {
	o := tableOptions{
		chunkSize: DefaultChunkSize,
		scheme:    partitioning.Null(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(&o)
	}

	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: table needs at least one column", model.ErrSchemaMismatch)
	}
	if len(defs) > int(^model.ColumnID(0)) {
		return nil, fmt.Errorf("%w: %d columns", model.ErrSchemaMismatch, len(defs))
	}
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", model.ErrSchemaMismatch, def.Name)
		}
		seen[def.Name] = struct{}{}
	}
	if o.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", model.ErrCapacityExceeded, o.chunkSize)
	}
	if o.scheme == nil {
		o.scheme = partitioning.Null()
	}
	if err := o.scheme.Validate(defs); err != nil {
		return nil, err
	}

	t := &Table{
		defs:       slices.Clone(defs),
		chunkSize:  o.chunkSize,
		scheme:     o.scheme,
		logger:     o.logger,
		partitions: make([]*Partition, o.scheme.PartitionCount()),
	}
	for i := range t.partitions {
		t.partitions[i] = &Partition{id: model.PartitionID(i)}
	}
	return t, nil
}

// ColumnDefinitions returns a copy of the schema.
func (t *Table) ColumnDefinitions() []model.ColumnDefinition { return slices.Clone(t.defs) }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.defs) }

// ColumnID returns the id of the named column.
func (t *Table) ColumnID(name string) (model.ColumnID, error) {
	for i, def := range t.defs {
		if def.Name == name {
			return model.ColumnID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: no column %q", model.ErrIndexOutOfBounds, name)
}

// ChunkSize returns the row capacity of a chunk.
func (t *Table) ChunkSize() int { return t.chunkSize }

// Scheme returns the partitioning scheme.
func (t *Table) Scheme() *partitioning.Scheme { return t.scheme }

// PartitionCount returns the number of partitions.
func (t *Table) PartitionCount() int { return len(t.partitions) }

// Partition returns partition id.
func (t *Table) Partition(id model.PartitionID) (*Partition, error) {
	if int(id) >= len(t.partitions) {
		return nil, fmt.Errorf("%w: partition %d of %d", model.ErrIndexOutOfBounds, id, len(t.partitions))
	}
	return t.partitions[id], nil
}

// ChunkCount returns the number of chunks across all partitions.
func (t *Table) ChunkCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.chunks)
}

// Chunk returns chunk id.
func (t *Table) Chunk(id model.ChunkID) (*Chunk, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int64(id) >= int64(len(t.chunks)) {
		return nil, fmt.Errorf("%w: chunk %d of %d", model.ErrIndexOutOfBounds, id, len(t.chunks))
	}
	return t.chunks[id], nil
}

// Chunks returns a snapshot of all chunks in id order.
func (t *Table) Chunks() []*Chunk {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.chunks)
}

// RowCount returns the number of rows across all chunks.
func (t *Table) RowCount() int {
	n := 0
	for _, c := range t.Chunks() {
		n += c.Size()
	}
	return n
}

// MemoryUsage estimates the heap bytes held by all chunks.
func (t *Table) MemoryUsage() int {
	n := 0
	for _, c := range t.Chunks() {
		if c.Sealed() {
			n += c.MemoryUsage()
			continue
		}
		c.owner.mu.Lock()
		n += c.MemoryUsage()
		c.owner.mu.Unlock()
	}
	return n
}

// Append validates row against the schema, routes it and stores it in the
// target partition's open chunk.
func (t *Table) Append(row []model.Value) error {
	if len(row) != len(t.defs) {
		return fmt.Errorf("%w: row has %d values, table has %d columns", model.ErrSchemaMismatch, len(row), len(t.defs))
	}
	for i, def := range t.defs {
		if err := model.CheckType(def, row[i]); err != nil {
			return err
		}
	}

	pid, err := t.scheme.Route(row)
	if err != nil {
		return err
	}
	p := t.partitions[pid]

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open == nil || p.open.chunk.Size() >= t.chunkSize {
		if err := t.openChunk(p); err != nil {
			return err
		}
	}
	return p.open.append(row)
}

// openChunk seals the partition's open chunk, if any, and starts a new one.
// The caller holds p.mu.
func (t *Table) openChunk(p *Partition) error {
	t.sealLocked(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	id := model.ChunkID(len(t.chunks))
	m, err := newMutableChunk(id, p, t.defs, min(t.chunkSize, 1024))
	if err != nil {
		return err
	}
	t.chunks = append(t.chunks, m.chunk)
	p.chunkIDs = append(p.chunkIDs, id)
	p.open = m
	t.logger.Debug("Chunk opened", "chunkID", id, "partitionID", p.id)
	return nil
}

func (t *Table) sealLocked(p *Partition) {
	if p.open == nil {
		return
	}
	id, rows := p.open.chunk.id, p.open.chunk.Size()
	p.open.seal()
	p.open = nil
	t.logger.Debug("Chunk sealed", "chunkID", id, "partitionID", p.id, "rowCount", rows)
}

// SealOpenChunks seals the open chunk of every partition. Later appends open
// new chunks.
func (t *Table) SealOpenChunks() {
	for _, p := range t.partitions {
		p.mu.Lock()
		t.sealLocked(p)
		p.mu.Unlock()
	}
}

// AppendChunk adds a sealed chunk built from columns. It is only available on
// tables partitioned with partitioning.Null, where chunk order is row order.
// The open chunk, if any, is sealed first.
func (t *Table) AppendChunk(columns []Column) (model.ChunkID, error) {
	if !t.scheme.Continuous() {
		return 0, fmt.Errorf("%w: %s", ErrPartitioned, t.scheme)
	}
	if err := t.checkColumns(columns); err != nil {
		return 0, err
	}

	p := t.partitions[0]
	p.mu.Lock()
	defer p.mu.Unlock()
	t.sealLocked(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	id := model.ChunkID(len(t.chunks))
	c := newChunk(id, nil, slices.Clone(columns))
	c.sealed.Store(true)
	t.chunks = append(t.chunks, c)
	p.chunkIDs = append(p.chunkIDs, id)
	return id, nil
}

func (t *Table) checkColumns(columns []Column) error {
	if len(columns) != len(t.defs) {
		return fmt.Errorf("%w: chunk has %d columns, table has %d", model.ErrSchemaMismatch, len(columns), len(t.defs))
	}
	rows := columns[0].Len()
	if rows > t.chunkSize {
		return fmt.Errorf("%w: chunk of %d rows exceeds chunk size %d", model.ErrCapacityExceeded, rows, t.chunkSize)
	}
	for i, col := range columns {
		if col.DataType() != t.defs[i].Type {
			return fmt.Errorf("%w: column %q expects %s, got %s", model.ErrSchemaMismatch, t.defs[i].Name, t.defs[i].Type, col.DataType())
		}
		if col.Len() != rows {
			return fmt.Errorf("%w: column %q has %d rows, want %d", model.ErrSchemaMismatch, t.defs[i].Name, col.Len(), rows)
		}
	}
	return nil
}

// Value returns the value of column at row.
func (t *Table) Value(column model.ColumnID, row model.RowID) (model.Value, error) {
	if int(column) >= len(t.defs) {
		return model.Value{}, fmt.Errorf("%w: column %d of %d", model.ErrIndexOutOfBounds, column, len(t.defs))
	}
	c, err := t.Chunk(row.ChunkID)
	if err != nil {
		return model.Value{}, err
	}
	if !c.Sealed() && c.owner != nil {
		c.owner.mu.Lock()
		defer c.owner.mu.Unlock()
	}
	if int64(row.Offset) >= int64(c.Size()) {
		return model.Value{}, fmt.Errorf("%w: offset %d of %d in chunk %d", model.ErrIndexOutOfBounds, row.Offset, c.Size(), row.ChunkID)
	}
	return c.Column(column).Value(int(row.Offset))
}

// RestoreTable rebuilds a table from decoded chunks.
//
// chunks are indexed by chunk id and membership lists the chunk ids of each
// partition in order. Every chunk must belong to exactly one partition. The
// last chunk of a partition is reopened for appends when it is not full and
// holds only Value columns. A round-robin scheme resumes at the row count.
func RestoreTable(defs []model.ColumnDefinition, chunks [][]Column, membership [][]model.ChunkID, opts ...TableOption) (*Table, error) {
	t, err := NewTable(defs, opts...)
	if err != nil {
		return nil, err
	}
	if len(membership) != len(t.partitions) {
		return nil, fmt.Errorf("%w: %d partition blocks for %d partitions", model.ErrCorruptFormat, len(membership), len(t.partitions))
	}

	owner := make([]*Partition, len(chunks))
	for pid, ids := range membership {
		for _, id := range ids {
			if int64(id) >= int64(len(chunks)) {
				return nil, fmt.Errorf("%w: partition %d references chunk %d of %d", model.ErrCorruptFormat, pid, id, len(chunks))
			}
			if owner[id] != nil {
				return nil, fmt.Errorf("%w: chunk %d belongs to several partitions", model.ErrCorruptFormat, id)
			}
			owner[id] = t.partitions[pid]
		}
	}

	rows := 0
	t.chunks = make([]*Chunk, len(chunks))
	for id, cols := range chunks {
		if owner[id] == nil {
			return nil, fmt.Errorf("%w: chunk %d belongs to no partition", model.ErrCorruptFormat, id)
		}
		if err := t.checkColumns(cols); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %w", model.ErrCorruptFormat, id, err)
		}
		c := newChunk(model.ChunkID(id), owner[id], cols)
		c.sealed.Store(true)
		t.chunks[id] = c
		rows += c.Size()
	}

	for pid, ids := range membership {
		if len(ids) == 0 {
			continue
		}
		p := t.partitions[pid]
		p.chunkIDs = slices.Clone(ids)
		last := t.chunks[ids[len(ids)-1]]
		if last.Size() < t.chunkSize {
			if m, ok := reopenChunk(last); ok {
				p.open = m
			}
		}
	}

	if t.scheme.Kind() == partitioning.KindRoundRobin {
		t.scheme.Resume(uint64(rows))
	}
	return t, nil
}
