// Package blobstore provides the storage abstraction for exported tables and
// catalog manifests.
//
// Store is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests
//   - LocalStore: local filesystem with atomic writes and mmap reads
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Commits
//
// A Committer publishes numbered manifest versions with compare-and-swap
// semantics. StoreCommitter keeps the pointer in a CURRENT blob;
// s3.DDBCommitter uses DynamoDB conditional writes for multi-process writers.
package blobstore
