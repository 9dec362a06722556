package hash

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Sum64 hashes a canonical value key with xxhash.
// The result is stable across processes and platforms.
func Sum64(key []byte) uint64 {
	return xxhash.Sum64(key)
}
