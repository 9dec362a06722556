package operators

import (
	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/storage"
)

// chunkOutput collects the qualifying rows of one input chunk and builds the
// reference columns of the matching output chunk.
//
// Output columns that read through the same input position list share one
// output position list. Columns that are not references share the list of
// direct row ids into the input table.
type chunkOutput struct {
	chunkID model.ChunkID
	targets []target
	inputs  []*storage.PosList // nil entry: direct rows into the input table
	rows    [][]model.RowID
}

type target struct {
	table  *storage.Table
	column model.ColumnID
	list   int
}

func newChunkOutput(t *storage.Table, c *storage.Chunk) *chunkOutput {
	o := &chunkOutput{
		chunkID: c.ID(),
		targets: make([]target, t.ColumnCount()),
	}
	index := make(map[*storage.PosList]int)
	for i := range o.targets {
		tgt := target{table: t, column: model.ColumnID(i)}
		var in *storage.PosList
		if ref, ok := c.Column(model.ColumnID(i)).(*storage.ReferenceColumn); ok {
			tgt.table, tgt.column, in = ref.Table(), ref.ReferencedColumn(), ref.PosList()
		}
		list, ok := index[in]
		if !ok {
			list = len(o.inputs)
			index[in] = list
			o.inputs = append(o.inputs, in)
			o.rows = append(o.rows, nil)
		}
		tgt.list = list
		o.targets[i] = tgt
	}
	return o
}

// add appends input row offset to every output position list.
func (o *chunkOutput) add(offset int) {
	for i, in := range o.inputs {
		if in == nil {
			o.rows[i] = append(o.rows[i], model.RowID{ChunkID: o.chunkID, Offset: model.ChunkOffset(offset)})
			continue
		}
		o.rows[i] = append(o.rows[i], in.At(offset))
	}
}

func (o *chunkOutput) len() int {
	if len(o.rows) == 0 {
		return 0
	}
	return len(o.rows[0])
}

func (o *chunkOutput) columns() ([]storage.Column, error) {
	lists := make([]*storage.PosList, len(o.rows))
	for i, rows := range o.rows {
		lists[i] = storage.NewPosList(rows)
	}
	cols := make([]storage.Column, len(o.targets))
	for i, tgt := range o.targets {
		col, err := storage.NewReferenceColumn(tgt.table, tgt.column, lists[tgt.list])
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

// newOutputTable creates an empty reference table with the schema of t.
func newOutputTable(t *storage.Table) (*storage.Table, error) {
	return storage.NewTable(t.ColumnDefinitions(), storage.WithChunkSize(t.ChunkSize()))
}

// emit appends the chunk to out unless it is empty.
func (o *chunkOutput) emit(out *storage.Table) error {
	if o.len() == 0 {
		return nil
	}
	cols, err := o.columns()
	if err != nil {
		return err
	}
	_, err = out.AppendChunk(cols)
	return err
}
