package persistence

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/colgo/fixedstring"
	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/partitioning"
	"github.com/hupe1980/colgo/storage"
)

// Import reads a table in the binary table format from r.
//
// The table is built privately and returned only when the whole stream
// decoded; on error nothing is returned.
func Import(r io.Reader, opts ...storage.TableOption) (*storage.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	return Unmarshal(data, opts...)
}

// Unmarshal decodes a table from data.
//
// Chunk size and partitioning always come from the stream; opts may add
// settings such as storage.WithLogger. Trailing bytes are rejected.
func Unmarshal(data []byte, opts ...storage.TableOption) (*storage.Table, error) {
	r := &reader{buf: data}

	chunkSize := r.u32()
	chunkCount := r.u32()
	columnCount := int(r.u16())
	if r.err == nil && columnCount == 0 {
		return nil, fmt.Errorf("%w: table without columns", model.ErrCorruptFormat)
	}

	defs := make([]model.ColumnDefinition, r.count(uint32(columnCount), 3, "column"))
	for i := range defs {
		defs[i].Type = model.DataType(r.u8())
		if r.err == nil && !defs[i].Type.Valid() {
			return nil, fmt.Errorf("%w: column %d has type tag %d", model.ErrCorruptFormat, i, defs[i].Type)
		}
	}
	for i := range defs {
		defs[i].Nullable = r.bool("nullability")
	}
	nameLens := make([]int, len(defs))
	for i := range defs {
		nameLens[i] = int(r.u8())
	}
	for i := range defs {
		defs[i].Name = string(r.take(nameLens[i]))
	}

	scheme := readScheme(r, defs)

	membership := make([][]model.ChunkID, 0, 1)
	if scheme != nil {
		membership = make([][]model.ChunkID, scheme.PartitionCount())
	}
	for pid := range membership {
		n := r.count(r.u32(), 4, "partition chunk")
		ids := make([]model.ChunkID, n)
		for i := range ids {
			ids[i] = model.ChunkID(r.u32())
		}
		membership[pid] = ids
	}

	// Each chunk needs at least its row count and one tag byte per column.
	chunks := make([][]storage.Column, r.count(chunkCount, 4+len(defs), "chunk"))
	for id := range chunks {
		rows := r.count(r.u32(), len(defs), "row")
		if r.err == nil && rows > int(chunkSize) {
			return nil, fmt.Errorf("%w: chunk %d has %d rows, chunk size is %d", model.ErrCorruptFormat, id, rows, chunkSize)
		}
		cols := make([]storage.Column, len(defs))
		for i, d := range defs {
			cols[i] = readColumn(r, d, rows)
			if r.err != nil {
				return nil, fmt.Errorf("chunk %d column %q: %w", id, d.Name, r.err)
			}
		}
		chunks[id] = cols
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", model.ErrCorruptFormat, r.remaining())
	}
	if int64(chunkSize) > math.MaxInt {
		return nil, fmt.Errorf("%w: chunk size %d", model.ErrCorruptFormat, chunkSize)
	}

	tableOpts := append(append([]storage.TableOption(nil), opts...),
		storage.WithChunkSize(int(chunkSize)),
		storage.WithPartitioning(scheme),
	)
	t, err := storage.RestoreTable(defs, chunks, membership, tableOpts...)
	if err != nil {
		return nil, asCorrupt(err)
	}
	return t, nil
}

func readScheme(r *reader, defs []model.ColumnDefinition) *partitioning.Scheme {
	kind := partitioning.Kind(r.u8())
	count := int(r.u16())
	if r.err != nil {
		return nil
	}

	var (
		s   *partitioning.Scheme
		err error
	)
	switch kind {
	case partitioning.KindNull:
		if count != 1 {
			err = fmt.Errorf("null partitioning with %d partitions", count)
			break
		}
		s = partitioning.Null()
	case partitioning.KindRoundRobin:
		s, err = partitioning.RoundRobin(count)
	case partitioning.KindRange:
		column := r.u32()
		typ := model.DataType(r.u8())
		if r.err != nil {
			return nil
		}
		if int64(column) >= int64(len(defs)) {
			err = fmt.Errorf("range column %d of %d", column, len(defs))
			break
		}
		if typ != defs[column].Type {
			err = fmt.Errorf("range bounds of type tag %d for %s column", typ, defs[column].Type)
			break
		}
		if count < 2 {
			err = fmt.Errorf("range partitioning with %d partitions", count)
			break
		}
		bounds := make([]model.Value, r.count(uint32(count-1), minWidth(typ), "range bound"))
		for i := range bounds {
			bounds[i] = readValue(r, typ)
		}
		if r.err != nil {
			return nil
		}
		s, err = partitioning.Range(model.ColumnID(column), bounds)
	case partitioning.KindHash:
		column := r.u32()
		if r.err != nil {
			return nil
		}
		if int64(column) >= int64(len(defs)) {
			err = fmt.Errorf("hash column %d of %d", column, len(defs))
			break
		}
		s, err = partitioning.Hash(model.ColumnID(column), count)
	default:
		err = fmt.Errorf("partitioning tag %d", kind)
	}
	if err != nil {
		r.fail(asCorrupt(err))
		return nil
	}
	return s
}

func readColumn(r *reader, def model.ColumnDefinition, rows int) storage.Column {
	switch def.Type {
	case model.TypeInt:
		return readTyped[int32](r, def, rows)
	case model.TypeLong:
		return readTyped[int64](r, def, rows)
	case model.TypeFloat:
		return readTyped[float32](r, def, rows)
	case model.TypeDouble:
		return readTyped[float64](r, def, rows)
	default:
		return readTyped[string](r, def, rows)
	}
}

func readTyped[T model.Scalar](r *reader, def model.ColumnDefinition, rows int) storage.Column {
	tag := storage.EncodingType(r.u8())
	if r.err != nil {
		return nil
	}

	switch tag {
	case storage.EncodingUnencoded:
		if def.Nullable {
			for i, flag := range r.take(rows) {
				switch flag {
				case 0:
				case 1:
					r.fail(fmt.Errorf("%w: %w: row %d", model.ErrCorruptFormat, model.ErrUnsupportedNullValue, i))
					return nil
				default:
					r.fail(fmt.Errorf("%w: null flag %d at row %d", model.ErrCorruptFormat, flag, i))
					return nil
				}
			}
		}
		values := make([]T, r.count(uint32(rows), minWidth(model.TypeOf[T]()), "value"))
		for i := range values {
			values[i] = readScalar[T](r)
		}
		if r.err != nil {
			return nil
		}
		return storage.NewValueColumnFrom(values, def.Nullable)

	case storage.EncodingDictionary:
		values, codes := readDictionary[T](r, rows)
		if r.err != nil {
			return nil
		}
		dict, err := storage.NewDictionary(values)
		if err != nil {
			r.fail(asCorrupt(err))
			return nil
		}
		col, err := storage.NewDictionaryColumn(dict, codes)
		if err != nil {
			r.fail(asCorrupt(err))
			return nil
		}
		return col

	case storage.EncodingFixedStringDictionary:
		if def.Type != model.TypeString {
			r.fail(fmt.Errorf("%w: fixed-string dictionary for %s column", model.ErrCorruptFormat, def.Type))
			return nil
		}
		values, codes := readDictionary[string](r, rows)
		if r.err != nil {
			return nil
		}
		maxLen := 0
		for _, s := range values {
			maxLen = max(maxLen, len(s))
		}
		pool, err := fixedstring.FromStrings(values, maxLen)
		if err != nil {
			r.fail(asCorrupt(err))
			return nil
		}
		col, err := storage.NewFixedStringDictionaryColumn(pool, codes)
		if err != nil {
			r.fail(asCorrupt(err))
			return nil
		}
		return col

	default:
		r.fail(fmt.Errorf("%w: encoding tag %d", model.ErrCorruptFormat, tag))
		return nil
	}
}

func readDictionary[T model.Scalar](r *reader, rows int) ([]T, storage.AttributeVector) {
	width := int(r.u8())
	size := r.u32()
	if r.err != nil {
		return nil, nil
	}
	if width != 1 && width != 2 && width != 4 {
		r.fail(fmt.Errorf("%w: attribute vector width %d", model.ErrCorruptFormat, width))
		return nil, nil
	}

	values := make([]T, r.count(size, minWidth(model.TypeOf[T]()), "dictionary value"))
	for i := range values {
		values[i] = readScalar[T](r)
	}
	if r.err != nil {
		return nil, nil
	}
	if want := storage.AttributeVectorWidth(len(values)); width != want {
		r.fail(fmt.Errorf("%w: attribute vector width %d, want %d for %d values", model.ErrCorruptFormat, width, want, len(values)))
		return nil, nil
	}

	ids := make([]model.ValueID, r.count(uint32(rows), width, "code"))
	for i := range ids {
		ids[i] = r.code(width)
		if r.err == nil && int64(ids[i]) >= int64(len(values)) {
			r.fail(fmt.Errorf("%w: code %d at row %d exceeds dictionary size %d", model.ErrCorruptFormat, ids[i], i, len(values)))
		}
	}
	if r.err != nil {
		return nil, nil
	}
	return values, storage.NewAttributeVector(ids, len(values))
}

// asCorrupt makes err match model.ErrCorruptFormat while keeping its cause.
func asCorrupt(err error) error {
	if errors.Is(err, model.ErrCorruptFormat) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrCorruptFormat, err)
}
