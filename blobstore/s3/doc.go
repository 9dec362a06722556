// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("warehouse/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db := colgo.New()
//	err = db.Save(ctx, store)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads with CRC32C checksums for large tables
//   - Automatic pagination for listing
//   - DDBCommitter for catalog commits from several processes
package s3
