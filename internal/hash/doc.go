// Package hash provides the checksums and value hashes used by colgo.
//
//   - CRC32C guards compressed table envelopes against corruption.
//   - Sum64 (xxhash) routes rows of hash-partitioned tables. It must stay stable
//     across processes, so map-seeded hashes are not an option.
package hash
