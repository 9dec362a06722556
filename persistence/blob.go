package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/colgo/blobstore"
	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/storage"
)

// SaveTable stores t as blob name in store, always inside an envelope so the
// checksum guards remote copies.
func SaveTable(ctx context.Context, store blobstore.Store, name string, t *storage.Table, opts ...Option) (err error) {
	o := applyOptions(opts)
	start := time.Now()
	defer func() {
		if err != nil {
			o.logger.Error("Export failed", "blob", name, "error", err)
		}
	}()

	data, err := Marshal(t)
	if err != nil {
		return err
	}
	env, err := Compress(data, o.compression)
	if err != nil {
		return err
	}
	if err := o.rc.AcquireIO(ctx, len(env)); err != nil {
		return err
	}
	if err := store.Put(ctx, name, env); err != nil {
		return fmt.Errorf("%w: put %s: %w", model.ErrIO, name, err)
	}

	o.logger.Info("Export completed",
		"blob", name,
		"bytes", len(env),
		"rawBytes", len(data),
		"compression", o.compression.String(),
		"chunkCount", t.ChunkCount(),
		"rowCount", t.RowCount(),
		"duration", time.Since(start),
	)
	return nil
}

// LoadTable reads a table stored by SaveTable.
// A missing blob yields an error matching blobstore.ErrNotFound.
func LoadTable(ctx context.Context, store blobstore.Store, name string, opts ...Option) (t *storage.Table, err error) {
	o := applyOptions(opts)
	start := time.Now()
	defer func() {
		if err != nil {
			o.logger.Error("Import failed", "blob", name, "error", err)
		}
	}()

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", model.ErrIO, name, err)
	}
	defer b.Close()

	reserved, err := o.rc.Reserve(ctx, b.Size())
	if err != nil {
		return nil, err
	}
	defer o.rc.Release(reserved)

	if err := o.rc.AcquireIO(ctx, int(b.Size())); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", model.ErrIO, name, err)
	}
	if !IsEnvelope(data) {
		return nil, fmt.Errorf("%w: blob %s is not a table envelope", model.ErrCorruptFormat, name)
	}
	t, compression, err := decode(data, o.tableOpts)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Import completed",
		"blob", name,
		"bytes", len(data),
		"compression", compression.String(),
		"chunkCount", t.ChunkCount(),
		"rowCount", t.RowCount(),
		"duration", time.Since(start),
	)
	return t, nil
}
