package persistence

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/partitioning"
	"github.com/hupe1980/colgo/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wideDefs() []model.ColumnDefinition {
	return []model.ColumnDefinition{
		{Name: "i", Type: model.TypeInt},
		{Name: "l", Type: model.TypeLong},
		{Name: "f", Type: model.TypeFloat},
		{Name: "d", Type: model.TypeDouble},
		{Name: "s", Type: model.TypeString, Nullable: true},
	}
}

func wideRow(i int) []model.Value {
	return []model.Value{
		model.Int(int32(i%7) - 3),
		model.Long(int64(i) * 1_000_000_007),
		model.Float(float32(i) / 4),
		model.Double(math.Pi * float64(i)),
		model.String(fmt.Sprintf("city-%d", i%5)),
	}
}

func buildTable(t *testing.T, scheme *partitioning.Scheme, rows int) *storage.Table {
	t.Helper()
	tbl, err := storage.NewTable(wideDefs(), storage.WithChunkSize(8), storage.WithPartitioning(scheme))
	require.NoError(t, err)
	for i := range rows {
		require.NoError(t, tbl.Append(wideRow(i)))
	}
	return tbl
}

func mustScheme(s *partitioning.Scheme, err error) *partitioning.Scheme {
	if err != nil {
		panic(err)
	}
	return s
}

// assertTablesEqual compares schema, partitioning, layout, encodings and values.
func assertTablesEqual(t *testing.T, want, got *storage.Table) {
	t.Helper()
	require.NotNil(t, got)

	assert.Equal(t, want.ColumnDefinitions(), got.ColumnDefinitions())
	assert.Equal(t, want.ChunkSize(), got.ChunkSize())
	assert.Equal(t, want.RowCount(), got.RowCount())
	assert.Equal(t, want.ChunkCount(), got.ChunkCount())

	ws, gs := want.Scheme(), got.Scheme()
	assert.Equal(t, ws.Kind(), gs.Kind())
	assert.Equal(t, ws.PartitionCount(), gs.PartitionCount())
	assert.Equal(t, ws.Column(), gs.Column())
	assert.Equal(t, ws.Bounds(), gs.Bounds())
	assert.Equal(t, ws.RoutedRows(), gs.RoutedRows())

	require.Equal(t, want.PartitionCount(), got.PartitionCount())
	for pid := range want.PartitionCount() {
		wp, err := want.Partition(model.PartitionID(pid))
		require.NoError(t, err)
		gp, err := got.Partition(model.PartitionID(pid))
		require.NoError(t, err)
		assert.Equal(t, wp.ChunkIDs(), gp.ChunkIDs(), "partition %d", pid)
	}

	for _, wc := range want.Chunks() {
		gc, err := got.Chunk(wc.ID())
		require.NoError(t, err)
		require.Equal(t, wc.Size(), gc.Size(), "chunk %d", wc.ID())
		for col := range want.ColumnCount() {
			wcol, gcol := wc.Column(model.ColumnID(col)), gc.Column(model.ColumnID(col))
			assert.Equal(t, wcol.Encoding(), gcol.Encoding(), "chunk %d column %d", wc.ID(), col)
			wv, err := storage.Values(wcol)
			require.NoError(t, err)
			gv, err := storage.Values(gcol)
			require.NoError(t, err)
			assert.Equal(t, wv[:wc.Size()], gv, "chunk %d column %d", wc.ID(), col)
		}
	}
}

func roundTrip(t *testing.T, tbl *storage.Table) *storage.Table {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, tbl))
	got, err := Import(&buf)
	require.NoError(t, err)
	assertTablesEqual(t, tbl, got)
	return got
}

func TestRoundTrip_Schemes(t *testing.T) {
	tests := []struct {
		name   string
		scheme func(t *testing.T) *partitioning.Scheme
	}{
		{"Null", func(*testing.T) *partitioning.Scheme { return partitioning.Null() }},
		{"RoundRobin", func(t *testing.T) *partitioning.Scheme { return mustScheme(partitioning.RoundRobin(3)) }},
		{"Range", func(t *testing.T) *partitioning.Scheme {
			return mustScheme(partitioning.Range(3, []model.Value{model.Double(10), model.Double(40)}))
		}},
		{"RangeOnStrings", func(t *testing.T) *partitioning.Scheme {
			return mustScheme(partitioning.Range(4, []model.Value{model.String("city-2")}))
		}},
		{"Hash", func(t *testing.T) *partitioning.Scheme { return mustScheme(partitioning.Hash(1, 4)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, buildTable(t, tt.scheme(t), 61))
		})
	}
}

func TestRoundTrip_EmptyTable(t *testing.T) {
	roundTrip(t, buildTable(t, partitioning.Null(), 0))
}

func TestRoundTrip_Encodings(t *testing.T) {
	tbl := buildTable(t, mustScheme(partitioning.RoundRobin(2)), 45)
	tbl.SealOpenChunks()

	enc := storage.NewEncoder()
	specs := []storage.EncodingSpec{
		storage.UniformEncoding(storage.EncodingDictionary, 5),
		{storage.EncodingUnencoded, storage.EncodingDictionary, storage.EncodingUnencoded, storage.EncodingDictionary, storage.EncodingFixedStringDictionary},
	}
	for i, c := range tbl.Chunks() {
		require.NoError(t, enc.EncodeChunk(c, specs[i%len(specs)]))
	}

	got := roundTrip(t, tbl)

	c, err := got.Chunk(1)
	require.NoError(t, err)
	assert.Equal(t, storage.EncodingFixedStringDictionary, c.Column(4).Encoding())
}

func TestRoundTrip_WideDictionary(t *testing.T) {
	tbl, err := storage.NewTable([]model.ColumnDefinition{{Name: "v", Type: model.TypeInt}}, storage.WithChunkSize(1000))
	require.NoError(t, err)
	for i := range 1000 {
		require.NoError(t, tbl.Append([]model.Value{model.Int(int32(i))}))
	}
	tbl.SealOpenChunks()
	c, err := tbl.Chunk(0)
	require.NoError(t, err)
	require.NoError(t, storage.NewEncoder().EncodeChunk(c, storage.EncodingSpec{storage.EncodingDictionary}))
	require.Equal(t, 2, c.Column(0).(*storage.DictionaryColumn[int32]).AttributeVector().Width())

	roundTrip(t, tbl)
}

func TestRoundTrip_ContinuesAppending(t *testing.T) {
	tbl := buildTable(t, mustScheme(partitioning.RoundRobin(3)), 10)
	got := roundTrip(t, tbl)

	// The restored counter continues the sequence: row 10 goes to partition 1.
	require.NoError(t, got.Append(wideRow(10)))
	p, err := got.Partition(1)
	require.NoError(t, err)
	ids := p.ChunkIDs()
	last, err := got.Chunk(ids[len(ids)-1])
	require.NoError(t, err)
	v, err := got.Value(0, model.RowID{ChunkID: last.ID(), Offset: model.ChunkOffset(last.Size() - 1)})
	require.NoError(t, err)
	assert.Equal(t, wideRow(10)[0], v)
	assert.Equal(t, 11, got.RowCount())

	// Partition 1 had 3 rows in an open chunk of 8, so the chunk was reopened.
	assert.Equal(t, tbl.ChunkCount(), got.ChunkCount())
}

func TestRoundTrip_ExtremeValues(t *testing.T) {
	tbl, err := storage.NewTable([]model.ColumnDefinition{
		{Name: "i", Type: model.TypeInt},
		{Name: "l", Type: model.TypeLong},
		{Name: "f", Type: model.TypeFloat},
		{Name: "d", Type: model.TypeDouble},
		{Name: "s", Type: model.TypeString},
	})
	require.NoError(t, err)
	rows := [][]model.Value{
		{model.Int(math.MinInt32), model.Long(math.MinInt64), model.Float(-math.MaxFloat32), model.Double(math.Inf(-1)), model.String("")},
		{model.Int(math.MaxInt32), model.Long(math.MaxInt64), model.Float(math.SmallestNonzeroFloat32), model.Double(math.Inf(1)), model.String("ünïcødé")},
	}
	for _, r := range rows {
		require.NoError(t, tbl.Append(r))
	}
	roundTrip(t, tbl)
}
