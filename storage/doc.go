// Package storage implements the columnar table layout of colgo.
//
// # Hierarchy
//
// A Table owns one Partition per partition of its partitioning.Scheme. Each
// partition owns an ordered list of Chunks; only its last chunk may be open
// for appends. A chunk holds one Column per table column and at most
// ChunkSize rows.
//
//	t, _ := storage.NewTable(defs, storage.WithChunkSize(1024))
//	_ = t.Append([]model.Value{model.Int(1), model.String("a")})
//
// # Encodings
//
//   - ValueColumn[T]: raw values plus an optional roaring null bitmap
//   - DictionaryColumn[T]: sorted unique dictionary plus a 1/2/4 byte AttributeVector
//   - FixedStringDictionaryColumn: string dictionary stored in a fixedstring.Vector
//   - ReferenceColumn: reads through a shared PosList into another table
//
// Encoding never mutates a column. EncodeColumn builds a new column and
// Chunk.ReplaceColumn publishes it atomically; readers holding the previous
// column keep a consistent view. Dictionaries and position lists are immutable
// once built and may be shared freely.
//
// # Concurrency
//
// Appends to one partition are serialized by the partition; different
// partitions accept appends in parallel. Sealed chunks are read without locks.
// Encoder.EncodeTable encodes sealed chunks in parallel, bounded by an optional
// resource.Controller.
package storage
