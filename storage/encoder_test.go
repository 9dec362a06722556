package storage

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/partitioning"
	"github.com/hupe1980/colgo/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_EncodeTable(t *testing.T) {
	h, err := partitioning.Hash(0, 3)
	require.NoError(t, err)
	tbl, err := NewTable([]model.ColumnDefinition{
		{Name: "id", Type: model.TypeLong},
		{Name: "city", Type: model.TypeString},
	}, WithPartitioning(h), WithChunkSize(10))
	require.NoError(t, err)

	cities := []string{"Potsdam", "Berlin", "Hamburg"}
	for i := range 100 {
		require.NoError(t, tbl.Append([]model.Value{model.Long(int64(i)), model.String(cities[i%3])}))
	}
	tbl.SealOpenChunks()

	before := map[model.RowID][2]model.Value{}
	for _, c := range tbl.Chunks() {
		for off := range c.Size() {
			rid := model.RowID{ChunkID: c.ID(), Offset: model.ChunkOffset(off)}
			a, err := tbl.Value(0, rid)
			require.NoError(t, err)
			b, err := tbl.Value(1, rid)
			require.NoError(t, err)
			before[rid] = [2]model.Value{a, b}
		}
	}

	var buf bytes.Buffer
	rc := resource.NewController(resource.Config{MaxWorkers: 2, MemoryLimitBytes: 1 << 20})
	enc := NewEncoder(
		WithResourceController(rc),
		WithEncoderLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
	)

	spec := EncodingSpec{EncodingDictionary, EncodingFixedStringDictionary}
	require.NoError(t, enc.EncodeTable(t.Context(), tbl, spec))

	for _, c := range tbl.Chunks() {
		assert.Equal(t, EncodingDictionary, c.Column(0).Encoding())
		assert.Equal(t, EncodingFixedStringDictionary, c.Column(1).Encoding())
	}
	for rid, want := range before {
		a, err := tbl.Value(0, rid)
		require.NoError(t, err)
		b, err := tbl.Value(1, rid)
		require.NoError(t, err)
		assert.Equal(t, want, [2]model.Value{a, b})
	}
	assert.Zero(t, rc.MemoryUsage())
	assert.Contains(t, buf.String(), "Encode completed")
}

func TestEncoder_SkipsOpenChunks(t *testing.T) {
	tbl, err := NewTable(testDefs(), WithChunkSize(2))
	require.NoError(t, err)
	for i := range 3 {
		require.NoError(t, tbl.Append(row(int32(i), "x")))
	}

	enc := NewEncoder()
	require.NoError(t, enc.EncodeTable(t.Context(), tbl, UniformEncoding(EncodingDictionary, 2)))

	sealed, err := tbl.Chunk(0)
	require.NoError(t, err)
	open, err := tbl.Chunk(1)
	require.NoError(t, err)
	assert.Equal(t, EncodingDictionary, sealed.Column(1).Encoding())
	assert.Equal(t, EncodingUnencoded, open.Column(1).Encoding())

	assert.ErrorIs(t, enc.EncodeChunk(open, UniformEncoding(EncodingDictionary, 2)), ErrChunkMutable)
	assert.ErrorIs(t, enc.EncodeTable(t.Context(), tbl, UniformEncoding(EncodingDictionary, 1)), model.ErrSchemaMismatch)
}

func TestEncoder_PropagatesNullError(t *testing.T) {
	tbl, err := NewTable(testDefs())
	require.NoError(t, err)
	require.NoError(t, tbl.Append([]model.Value{model.Int(1), model.Null()}))
	tbl.SealOpenChunks()

	err = NewEncoder().EncodeTable(t.Context(), tbl, UniformEncoding(EncodingDictionary, 2))
	assert.ErrorIs(t, err, model.ErrUnsupportedNullValue)

	c, err := tbl.Chunk(0)
	require.NoError(t, err)
	assert.Equal(t, EncodingUnencoded, c.Column(1).Encoding())
}
