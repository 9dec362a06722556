package operators

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/storage"
)

// Difference returns the rows of left whose full value tuple does not occur in
// right.
//
// Membership is a set test: a left row is dropped if any right row matches it,
// however many duplicates either side holds. Both tables must have identical
// column definitions. The result consists of reference columns into left (or
// into the tables left references), one output chunk per non-empty input chunk.
func Difference(ctx context.Context, left, right *storage.Table) (*storage.Table, error) {
	if !slices.Equal(left.ColumnDefinitions(), right.ColumnDefinitions()) {
		return nil, fmt.Errorf("%w: difference inputs have different column definitions", model.ErrSchemaMismatch)
	}

	exclude := make(map[string]struct{}, right.RowCount())
	for _, c := range right.Chunks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys, err := rowKeys(c)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			exclude[string(k)] = struct{}{}
		}
	}

	out, err := newOutputTable(left)
	if err != nil {
		return nil, err
	}
	for _, c := range left.Chunks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys, err := rowKeys(c)
		if err != nil {
			return nil, err
		}
		o := newChunkOutput(left, c)
		for offset, k := range keys {
			if _, ok := exclude[string(k)]; !ok {
				o.add(offset)
			}
		}
		if err := o.emit(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rowKeys returns the concatenated value keys of every row of c, built
// column by column.
func rowKeys(c *storage.Chunk) ([][]byte, error) {
	rows := c.Size()
	keys := make([][]byte, rows)
	for i := range c.ColumnCount() {
		col := c.Column(model.ColumnID(i))
		for offset := range rows {
			v, err := col.Value(offset)
			if err != nil {
				return nil, err
			}
			keys[offset] = v.AppendKey(keys[offset])
		}
	}
	return keys, nil
}
