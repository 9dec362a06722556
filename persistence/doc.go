// Package persistence serializes tables to and from the colgo binary format.
//
// # Table format
//
// All integers are little-endian.
//
//	Header
//	  ChunkSize     u32
//	  ChunkCount    u32
//	  ColumnCount   u16
//	  TypeTags      [ColumnCount]u8
//	  Nullable      [ColumnCount]u8
//	  NameLengths   [ColumnCount]u8
//	  Names         concatenated bytes
//	  SchemeTag     u8   0=null 1=round-robin 2=range 3=hash
//	  Partitions    u16
//	  Range:        column u32, type tag u8, (Partitions-1) bounds
//	  Hash:         column u32
//	Per partition
//	  ChunkCount u32, ChunkIDs [ChunkCount]u32
//	Per chunk, in id order
//	  RowCount u32, then per column an encoding tag u8 and its payload:
//	  0 value:      [RowCount]u8 null flags if nullable, then the values
//	  1 dictionary: width u8, size u32, values, [RowCount] codes of width bytes
//	  2 fixed-string dictionary: same layout as dictionary
//
// Fixed-width values use their natural size; strings are a u16 length followed
// by the bytes. NULL values cannot be persisted: null flags are always zero and
// exporting a NULL fails with model.ErrUnsupportedNullValue. Reference columns
// must be materialized before export.
//
// # Files and blobs
//
// ExportFile and ImportFile write atomically and read through a memory
// mapping. SaveTable and LoadTable move tables through a blobstore.Store.
// Both can wrap the table stream in a checksummed envelope compressed with
// LZ4 or ZSTD.
package persistence
