package persistence

import (
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/partitioning"
	"github.com/hupe1980/colgo/storage"
)

// Export writes t to w in the binary table format.
//
// The whole stream is built in memory first, so a failing export never writes
// a partial table. The table must not be mutated concurrently.
func Export(w io.Writer, t *storage.Table) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	return nil
}

// Marshal returns the binary table format of t.
//
// Tables holding NULL values fail with model.ErrUnsupportedNullValue and
// tables holding ReferenceColumns fail with ErrUnsupportedEncoding.
func Marshal(t *storage.Table) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, estimateSize(t))}
	defs := t.ColumnDefinitions()
	chunks := t.Chunks()

	if t.ChunkSize() > math.MaxUint32 {
		return nil, fmt.Errorf("%w: chunk size %d", model.ErrCapacityExceeded, t.ChunkSize())
	}
	if len(chunks) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d chunks", model.ErrCapacityExceeded, len(chunks))
	}

	w.u32(uint32(t.ChunkSize()))
	w.u32(uint32(len(chunks)))
	w.u16(uint16(len(defs)))
	for _, d := range defs {
		w.u8(uint8(d.Type))
	}
	for _, d := range defs {
		w.bool(d.Nullable)
	}
	for _, d := range defs {
		w.u8(uint8(len(d.Name)))
	}
	for _, d := range defs {
		w.buf = append(w.buf, d.Name...)
	}

	writeScheme(w, t.Scheme())

	for pid := range t.PartitionCount() {
		p, err := t.Partition(model.PartitionID(pid))
		if err != nil {
			return nil, err
		}
		ids := p.ChunkIDs()
		w.u32(uint32(len(ids)))
		for _, id := range ids {
			w.u32(uint32(id))
		}
	}

	for _, c := range chunks {
		rows := c.Size()
		w.u32(uint32(rows))
		for i, d := range defs {
			col := c.Column(model.ColumnID(i))
			if err := writeColumn(w, d, col, rows); err != nil {
				return nil, fmt.Errorf("chunk %d column %q: %w", c.ID(), d.Name, err)
			}
		}
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

func writeScheme(w *writer, s *partitioning.Scheme) {
	w.u8(uint8(s.Kind()))
	w.u16(uint16(s.PartitionCount()))
	switch s.Kind() {
	case partitioning.KindRange:
		w.u32(uint32(s.Column()))
		w.u8(uint8(s.BoundType()))
		for _, b := range s.Bounds() {
			writeValue(w, b)
		}
	case partitioning.KindHash:
		w.u32(uint32(s.Column()))
	}
}

func writeColumn(w *writer, def model.ColumnDefinition, col storage.Column, rows int) error {
	if col == nil {
		return fmt.Errorf("%w: missing column", model.ErrSchemaMismatch)
	}
	if col.Len() < rows {
		return fmt.Errorf("%w: column has %d rows, chunk has %d", model.ErrSchemaMismatch, col.Len(), rows)
	}
	switch def.Type {
	case model.TypeInt:
		return writeTyped[int32](w, def, col, rows)
	case model.TypeLong:
		return writeTyped[int64](w, def, col, rows)
	case model.TypeFloat:
		return writeTyped[float32](w, def, col, rows)
	case model.TypeDouble:
		return writeTyped[float64](w, def, col, rows)
	case model.TypeString:
		return writeTyped[string](w, def, col, rows)
	default:
		return fmt.Errorf("%w: column type %s", model.ErrSchemaMismatch, def.Type)
	}
}

func writeTyped[T model.Scalar](w *writer, def model.ColumnDefinition, col storage.Column, rows int) error {
	switch c := col.(type) {
	case *storage.ValueColumn[T]:
		w.u8(uint8(storage.EncodingUnencoded))
		if def.Nullable {
			for i := range rows {
				if c.IsNull(i) {
					return fmt.Errorf("%w: row %d", model.ErrUnsupportedNullValue, i)
				}
				w.u8(0)
			}
		} else if c.NullCount() > 0 {
			return fmt.Errorf("%w: %d NULL values", model.ErrUnsupportedNullValue, c.NullCount())
		}
		for _, v := range c.Values()[:rows] {
			writeScalar(w, v)
		}
		return nil
	case *storage.DictionaryColumn[T]:
		w.u8(uint8(storage.EncodingDictionary))
		writeDictionary(w, c.Dictionary().Values(), c.AttributeVector(), rows)
		return nil
	case *storage.FixedStringDictionaryColumn:
		w.u8(uint8(storage.EncodingFixedStringDictionary))
		writeDictionary(w, c.Dictionary().Strings(), c.AttributeVector(), rows)
		return nil
	case *storage.ReferenceColumn:
		return fmt.Errorf("%w: reference columns must be materialized before export", ErrUnsupportedEncoding)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedEncoding, col)
	}
}

func writeDictionary[T model.Scalar](w *writer, values []T, codes storage.AttributeVector, rows int) {
	width := codes.Width()
	w.u8(uint8(width))
	w.u32(uint32(len(values)))
	for _, v := range values {
		writeScalar(w, v)
	}
	for i := range rows {
		w.code(codes.Get(i), width)
	}
}

// estimateSize guesses the encoded size to avoid regrowing the buffer.
func estimateSize(t *storage.Table) int {
	n := 64 + t.ColumnCount()*16
	for _, c := range t.Chunks() {
		n += 4 + c.Size()*t.ColumnCount()*4
	}
	return n
}
