package colgo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/colgo/blobstore"
	"github.com/hupe1980/colgo/manifest"
	"github.com/hupe1980/colgo/model"
	"github.com/hupe1980/colgo/persistence"
	"github.com/hupe1980/colgo/storage"
)

// TablePrefix is the blob name prefix of saved tables.
const TablePrefix = "tables/"

// DB is a catalog of named tables.
//
// Catalog operations are safe for concurrent use. Tables themselves support
// concurrent appends and reads, but must not be appended to while they are
// saved, exported or encoded.
type DB struct {
	mu      sync.RWMutex
	tables  map[string]*storage.Table
	version uint64

	// commitMu serializes Save and Load.
	commitMu sync.Mutex

	opts options
}

// New creates an empty catalog.
func New(optFns ...Option) *DB {
	return &DB{
		tables: make(map[string]*storage.Table),
		opts:   applyOptions(optFns),
	}
}

func validateName(name string) error {
	if name == "" || len(name) > 255 || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

// CreateTable creates an empty table and registers it under name.
// Options are passed to storage.NewTable after the catalog's logger.
func (db *DB) CreateTable(name string, defs []model.ColumnDefinition, opts ...storage.TableOption) (*storage.Table, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	t, err := storage.NewTable(defs, append([]storage.TableOption{db.tableLogger(name)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := db.AddTable(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddTable registers an existing table under name.
func (db *DB) AddTable(name string, t *storage.Table) error {
	if err := validateName(name); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tables[name]; ok {
		return &ErrTableExists{Name: name}
	}
	db.tables[name] = t
	return nil
}

// Table returns the table registered under name.
func (db *DB) Table(name string) (*storage.Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, &ErrTableNotFound{Name: name}
	}
	return t, nil
}

// DropTable removes a table from the catalog. Saved versions keep their copy.
func (db *DB) DropTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tables[name]; !ok {
		return &ErrTableNotFound{Name: name}
	}
	delete(db.tables, name)
	return nil
}

// TableNames returns the registered names in sorted order.
func (db *DB) TableNames() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return slices.Sorted(maps.Keys(db.tables))
}

// Version returns the catalog version this DB was last saved as or loaded
// from, 0 for a catalog that never touched a store.
func (db *DB) Version() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.version
}

func (db *DB) tableLogger(name string) storage.TableOption {
	return storage.WithLogger(db.opts.logger.WithTable(name).Logger)
}

func (db *DB) persistenceOptions(compress bool) []persistence.Option {
	opts := []persistence.Option{
		persistence.WithLogger(db.opts.logger.Logger),
		persistence.WithResourceController(db.opts.resources),
	}
	if compress {
		opts = append(opts, persistence.WithCompression(db.opts.compression))
	}
	return opts
}

// Encode seals the open chunks of a table and encodes every chunk to spec in
// parallel, bounded by the resource controller.
func (db *DB) Encode(ctx context.Context, name string, spec storage.EncodingSpec) (err error) {
	start := time.Now()
	t, err := db.Table(name)
	if err != nil {
		return err
	}
	defer func() {
		db.opts.logger.LogEncode(ctx, name, t.ChunkCount(), err)
		db.opts.metricsCollector.RecordEncode(t.ChunkCount(), time.Since(start), err)
	}()

	t.SealOpenChunks()
	enc := storage.NewEncoder(
		storage.WithResourceController(db.opts.resources),
		storage.WithEncoderLogger(db.opts.logger.WithTable(name).Logger),
	)
	return enc.EncodeTable(ctx, t, spec)
}

// ExportFile writes a table to path in the binary table format.
func (db *DB) ExportFile(ctx context.Context, name, path string) (err error) {
	start := time.Now()
	defer func() {
		db.opts.logger.LogExport(ctx, name, path, err)
		db.opts.metricsCollector.RecordExport(time.Since(start), err)
	}()

	t, err := db.Table(name)
	if err != nil {
		return err
	}
	return persistence.ExportFile(ctx, path, t, db.persistenceOptions(db.opts.compressFiles)...)
}

// ImportFile reads a table file and registers it under name.
func (db *DB) ImportFile(ctx context.Context, name, path string) (err error) {
	start := time.Now()
	defer func() {
		db.opts.logger.LogImport(ctx, name, path, err)
		db.opts.metricsCollector.RecordImport(time.Since(start), err)
	}()

	if err := validateName(name); err != nil {
		return err
	}
	opts := append(db.persistenceOptions(false), persistence.WithTableOptions(db.tableLogger(name)))
	t, err := persistence.ImportFile(ctx, path, opts...)
	if err != nil {
		return err
	}
	return db.AddTable(name, t)
}

func (db *DB) manifests(store blobstore.Store) *manifest.Store {
	return manifest.NewStore(store, db.opts.committer, db.opts.codec)
}

// Save writes every table to store and commits a new catalog version.
//
// The new version must directly follow the version this DB was loaded from or
// last saved as. If another writer committed in between, Save removes the
// blobs it wrote and returns an error matching ErrConcurrentModification.
// Blobs of earlier versions are kept, so LoadVersion can still read them.
func (db *DB) Save(ctx context.Context, store blobstore.Store) (err error) {
	db.commitMu.Lock()
	defer db.commitMu.Unlock()

	start := time.Now()
	db.mu.RLock()
	base := db.version
	tables := maps.Clone(db.tables)
	db.mu.RUnlock()

	m := &manifest.Manifest{}
	defer func() {
		db.opts.logger.LogSave(ctx, m.Version, len(m.Tables), err)
		db.opts.metricsCollector.RecordSave(len(m.Tables), time.Since(start), err)
	}()

	var written []string
	cleanup := func() {
		for _, blob := range written {
			_ = store.Delete(ctx, blob)
		}
	}

	opts := db.persistenceOptions(true)
	for _, name := range slices.Sorted(maps.Keys(tables)) {
		t := tables[name]
		blob := fmt.Sprintf("%s%s-%06d-%s.colgo", TablePrefix, name, base+1, uuid.NewString())
		if err := persistence.SaveTable(ctx, store, blob, t, opts...); err != nil {
			cleanup()
			return fmt.Errorf("save table %q: %w", name, err)
		}
		written = append(written, blob)
		m.Tables = append(m.Tables, manifest.TableInfo{
			Name:        name,
			Blob:        blob,
			RowCount:    t.RowCount(),
			ChunkCount:  t.ChunkCount(),
			Compression: db.opts.compression.String(),
		})
	}

	if err := db.manifests(store).Commit(ctx, base, m); err != nil {
		cleanup()
		return err
	}

	db.mu.Lock()
	db.version = m.Version
	db.mu.Unlock()
	return nil
}

// Load replaces the catalog with the latest version committed to store.
// An empty store yields an empty catalog of version 0.
func (db *DB) Load(ctx context.Context, store blobstore.Store) error {
	db.commitMu.Lock()
	defer db.commitMu.Unlock()

	start := time.Now()
	m, err := db.manifests(store).Load(ctx)
	if err != nil {
		db.opts.logger.LogLoad(ctx, 0, 0, err)
		db.opts.metricsCollector.RecordLoad(0, time.Since(start), err)
		return err
	}
	return db.loadManifest(ctx, store, m, start)
}

// LoadVersion replaces the catalog with an earlier committed version.
//
// Saving after loading an older version fails with ErrConcurrentModification,
// because that version is no longer the latest.
func (db *DB) LoadVersion(ctx context.Context, store blobstore.Store, version uint64) error {
	db.commitMu.Lock()
	defer db.commitMu.Unlock()

	start := time.Now()
	m, err := db.manifests(store).LoadVersion(ctx, version)
	if err != nil {
		db.opts.logger.LogLoad(ctx, version, 0, err)
		db.opts.metricsCollector.RecordLoad(0, time.Since(start), err)
		return err
	}
	return db.loadManifest(ctx, store, m, start)
}

func (db *DB) loadManifest(ctx context.Context, store blobstore.Store, m *manifest.Manifest, start time.Time) (err error) {
	defer func() {
		db.opts.logger.LogLoad(ctx, m.Version, len(m.Tables), err)
		db.opts.metricsCollector.RecordLoad(len(m.Tables), time.Since(start), err)
	}()

	tables := make(map[string]*storage.Table, len(m.Tables))
	for _, info := range m.Tables {
		if err := validateName(info.Name); err != nil {
			return fmt.Errorf("%w: manifest version %d: %w", ErrCorruptFormat, m.Version, err)
		}
		if _, dup := tables[info.Name]; dup {
			return fmt.Errorf("%w: manifest version %d lists table %q twice", ErrCorruptFormat, m.Version, info.Name)
		}
		opts := append(db.persistenceOptions(false), persistence.WithTableOptions(db.tableLogger(info.Name)))
		t, err := persistence.LoadTable(ctx, store, info.Blob, opts...)
		if err != nil {
			return fmt.Errorf("load table %q: %w", info.Name, err)
		}
		if t.RowCount() != info.RowCount {
			return fmt.Errorf("%w: table %q has %d rows, manifest says %d", ErrCorruptFormat, info.Name, t.RowCount(), info.RowCount)
		}
		tables[info.Name] = t
	}

	db.mu.Lock()
	db.tables = tables
	db.version = m.Version
	db.mu.Unlock()
	return nil
}

// IsNotFound reports whether err means a missing table or blob.
func IsNotFound(err error) bool {
	var tnf *ErrTableNotFound
	return errors.As(err, &tnf) || errors.Is(err, blobstore.ErrNotFound)
}
