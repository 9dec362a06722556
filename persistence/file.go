package persistence

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hupe1980/colgo/internal/fs"
	"github.com/hupe1980/colgo/internal/mmap"
	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/resource"
	"github.com/hupe1980/colgo/storage"
)

// ExportFile writes t to path.
//
// The file is written to a temporary file in the same directory, synced and
// renamed into place, so a crash leaves either the old or the new file. Without
// WithCompression the file holds the raw table format.
func ExportFile(ctx context.Context, path string, t *storage.Table, opts ...Option) (err error) {
	o := applyOptions(opts)
	start := time.Now()
	defer func() {
		if err != nil {
			o.logger.Error("Export failed", "path", path, "error", err)
		}
	}()

	data, err := Marshal(t)
	if err != nil {
		return err
	}
	if o.envelope {
		if data, err = Compress(data, o.compression); err != nil {
			return err
		}
	}
	if err := writeFileAtomic(ctx, o.fsys, path, data, o.rc); err != nil {
		return fmt.Errorf("%w: %w", model.ErrIO, err)
	}

	o.logger.Info("Export completed",
		"path", path,
		"bytes", len(data),
		"compression", o.compression.String(),
		"chunkCount", t.ChunkCount(),
		"rowCount", t.RowCount(),
		"duration", time.Since(start),
	)
	return nil
}

func writeFileAtomic(ctx context.Context, fsys fs.FileSystem, path string, data []byte, rc *resource.Controller) error {
	dir := filepath.Dir(path)
	f, tmp, err := fs.CreateTemp(fsys, dir, filepath.Base(path))
	if err != nil {
		return err
	}
	defer func() {
		_ = fsys.Remove(tmp) // no-op after a successful rename
	}()

	bw := bufio.NewWriterSize(resource.NewWriter(ctx, f, rc), 256*1024)
	if _, err := bw.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return err
	}
	return fs.SyncDir(fsys, dir)
}

// ImportFile reads a table written by ExportFile. Compressed and raw files are
// told apart by the envelope magic.
func ImportFile(ctx context.Context, path string, opts ...Option) (t *storage.Table, err error) {
	o := applyOptions(opts)
	start := time.Now()
	defer func() {
		if err != nil {
			o.logger.Error("Import failed", "path", path, "error", err)
		}
	}()

	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	defer m.Close()
	_ = m.Advise(mmap.AccessSequential)

	if err := o.rc.AcquireIO(ctx, m.Size()); err != nil {
		return nil, err
	}
	reserved, err := o.rc.Reserve(ctx, int64(m.Size()))
	if err != nil {
		return nil, err
	}
	defer o.rc.Release(reserved)

	// Decoding copies every value, so nothing aliases the mapping after Close.
	t, compression, err := decode(m.Bytes(), o.tableOpts)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Import completed",
		"path", path,
		"bytes", m.Size(),
		"compression", compression.String(),
		"chunkCount", t.ChunkCount(),
		"rowCount", t.RowCount(),
		"duration", time.Since(start),
	)
	return t, nil
}

// decode unwraps an optional envelope and decodes the table.
func decode(data []byte, tableOpts []storage.TableOption) (*storage.Table, Compression, error) {
	compression := CompressionNone
	if IsEnvelope(data) {
		var err error
		if data, compression, err = Decompress(data); err != nil {
			return nil, compression, err
		}
	}
	t, err := Unmarshal(data, tableOpts...)
	return t, compression, err
}
