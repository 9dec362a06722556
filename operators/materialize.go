package operators

import (
	"context"
	"fmt"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/storage"
)

type appender interface {
	storage.Column
	Append(v model.Value) error
}

// Materialize copies t into a new table of sealed Value columns, one output
// chunk per input chunk. It resolves reference and encoded columns, which
// makes operator results exportable.
func Materialize(ctx context.Context, t *storage.Table) (*storage.Table, error) {
	defs := t.ColumnDefinitions()
	out, err := storage.NewTable(defs, storage.WithChunkSize(t.ChunkSize()))
	if err != nil {
		return nil, err
	}

	for _, c := range t.Chunks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows := c.Size()
		cols := make([]storage.Column, len(defs))
		for i, def := range defs {
			col, err := storage.NewValueColumnOf(def.Type, def.Nullable, rows)
			if err != nil {
				return nil, err
			}
			a := col.(appender)
			src := c.Column(model.ColumnID(i))
			for offset := range rows {
				v, err := src.Value(offset)
				if err != nil {
					return nil, err
				}
				if err := a.Append(v); err != nil {
					return nil, fmt.Errorf("column %q: %w", def.Name, err)
				}
			}
			cols[i] = col
		}
		if _, err := out.AppendChunk(cols); err != nil {
			return nil, err
		}
	}
	return out, nil
}
