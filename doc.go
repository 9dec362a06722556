// Package colgo is an in-memory columnar storage core.
//
// Tables are split into partitions, partitions into fixed-capacity chunks and
// chunks into one column per schema column. Columns are stored as plain values,
// as sorted dictionaries with bit-packed attribute vectors, as dictionaries
// over a fixed-width string pool, or as references into other tables.
//
//   - model: data types, the Value variant, ids and error kinds
//   - fixedstring: fixed-width string pool
//   - partitioning: null, round-robin, range and hash partitioning
//   - storage: tables, chunks, column encodings and the parallel encoder
//   - persistence: the binary table format, compressed envelopes, files and blobs
//   - blobstore: memory, local, S3 and MinIO stores plus commit coordination
//   - operators: table scan, difference and materialization
//   - manifest, codec: versioned catalog manifests and their JSON codecs
//   - resource: worker, memory and IO limits
//
// # Quick Start
//
//	ctx := context.Background()
//	db := colgo.New(colgo.WithLogger(colgo.NewTextLogger(slog.LevelInfo)))
//
//	orders, err := db.CreateTable("orders", []model.ColumnDefinition{
//	    {Name: "id", Type: model.TypeLong},
//	    {Name: "city", Type: model.TypeString},
//	    {Name: "amount", Type: model.TypeDouble},
//	}, storage.WithChunkSize(65535))
//	if err != nil {
//	    panic(err)
//	}
//	err = orders.Append([]model.Value{model.Long(1), model.String("Berlin"), model.Double(9.5)})
//
// Encode chunks once they are complete:
//
//	err = db.Encode(ctx, "orders", storage.EncodingSpec{
//	    storage.EncodingUnencoded,
//	    storage.EncodingFixedStringDictionary,
//	    storage.EncodingDictionary,
//	})
//
// Save the catalog to any blob store and load it elsewhere:
//
//	store := blobstore.NewLocalStore("./warehouse")
//	err = db.Save(ctx, store)
//
//	replica := colgo.New()
//	err = replica.Load(ctx, store)
//
// Every Save commits a new catalog version. Concurrent writers are detected
// through the blobstore.Committer; the loser gets ErrConcurrentModification.
package colgo
