package storage

import (
	"fmt"
	"slices"

	"github.com/hupe1980/colgo/model"
)

// PosList is an immutable list of row ids into a referenced table.
//
// Several reference columns of one result share a single PosList when they
// address the same source rows.
type PosList struct {
	rows []model.RowID
}

// NewPosList takes ownership of rows.
func NewPosList(rows []model.RowID) *PosList {
	return &PosList{rows: slices.Clip(rows)}
}

// Len returns the number of positions.
func (p *PosList) Len() int { return len(p.rows) }

// At returns position i.
func (p *PosList) At(i int) model.RowID { return p.rows[i] }

// Rows returns the backing slice. Callers must not modify it.
func (p *PosList) Rows() []model.RowID { return p.rows }

// MemoryUsage estimates the heap bytes held by the list.
func (p *PosList) MemoryUsage() int { return cap(p.rows) * 8 }

// ReferenceColumn reads its values through a PosList from a column of another
// table. It owns no value data.
//
// References are flattened at construction, so the target column is never
// itself a reference column.
type ReferenceColumn struct {
	table  *Table
	column model.ColumnID
	pos    *PosList
}

// NewReferenceColumn creates a column reading table.column at the rows of pos.
//
// If the addressed rows live in reference columns, they are resolved to the
// underlying base table and a new PosList is built; otherwise pos is shared.
func NewReferenceColumn(table *Table, column model.ColumnID, pos *PosList) (*ReferenceColumn, error) {
	if int(column) >= len(table.defs) {
		return nil, fmt.Errorf("%w: column %d of %d", model.ErrIndexOutOfBounds, column, len(table.defs))
	}
	base, baseColumn, flat, err := flatten(table, column, pos)
	if err != nil {
		return nil, err
	}
	return &ReferenceColumn{table: base, column: baseColumn, pos: flat}, nil
}

func flatten(table *Table, column model.ColumnID, pos *PosList) (*Table, model.ColumnID, *PosList, error) {
	var (
		base       *Table
		baseColumn model.ColumnID
		rows       []model.RowID
	)
	for i, r := range pos.rows {
		chunk, err := table.Chunk(r.ChunkID)
		if err != nil {
			return nil, 0, nil, err
		}
		ref, ok := chunk.Column(column).(*ReferenceColumn)
		if !ok {
			if rows != nil {
				return nil, 0, nil, fmt.Errorf("%w: reference targets mix base and reference columns", model.ErrSchemaMismatch)
			}
			continue
		}
		if int(r.Offset) >= ref.Len() {
			return nil, 0, nil, fmt.Errorf("%w: offset %d of %d", model.ErrIndexOutOfBounds, r.Offset, ref.Len())
		}
		if rows == nil {
			if i > 0 {
				return nil, 0, nil, fmt.Errorf("%w: reference targets mix base and reference columns", model.ErrSchemaMismatch)
			}
			base, baseColumn = ref.table, ref.column
			rows = make([]model.RowID, 0, pos.Len())
		} else if ref.table != base || ref.column != baseColumn {
			return nil, 0, nil, fmt.Errorf("%w: reference targets span several base tables", model.ErrSchemaMismatch)
		}
		rows = append(rows, ref.pos.rows[r.Offset])
	}
	if rows == nil {
		return table, column, pos, nil
	}
	return base, baseColumn, NewPosList(rows), nil
}

func (c *ReferenceColumn) Len() int                 { return c.pos.Len() }
func (c *ReferenceColumn) DataType() model.DataType { return c.table.defs[c.column].Type }
func (c *ReferenceColumn) Encoding() EncodingType   { return EncodingReference }

// Table returns the referenced table.
func (c *ReferenceColumn) Table() *Table { return c.table }

// ReferencedColumn returns the column id within the referenced table.
func (c *ReferenceColumn) ReferencedColumn() model.ColumnID { return c.column }

// PosList returns the shared position list.
func (c *ReferenceColumn) PosList() *PosList { return c.pos }

func (c *ReferenceColumn) Value(i int) (model.Value, error) {
	if err := checkRow(i, c.pos.Len()); err != nil {
		return model.Value{}, err
	}
	return c.table.Value(c.column, c.pos.rows[i])
}

// MemoryUsage counts only the position list; the referenced table is not owned.
func (c *ReferenceColumn) MemoryUsage() int { return c.pos.MemoryUsage() }

// Copy returns a column with its own position list, still reading the same table.
func (c *ReferenceColumn) Copy() Column {
	return &ReferenceColumn{table: c.table, column: c.column, pos: NewPosList(slices.Clone(c.pos.rows))}
}
