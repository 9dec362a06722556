// Package manifest keeps versioned catalog manifests in a blob store.
//
// A manifest lists the table blobs of one catalog version. Manifests are
// immutable blobs; the committed version is published through a
// blobstore.Committer, so readers always see a complete catalog.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/colgo/blobstore"
	"github.com/hupe1980/colgo/codec"
)

const (
	// Prefix is the blob name prefix of all manifests.
	Prefix = "manifests/"
	// FormatVersion is the manifest layout written by this package.
	FormatVersion = 1
)

// ErrUnsupportedFormat is returned for manifests written by a newer layout.
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

// ErrVersionNotFound is returned by LoadVersion for versions that were never
// committed.
var ErrVersionNotFound = errors.New("manifest version not found")

// Manifest describes the catalog at one committed version.
type Manifest struct {
	Format    int         `json:"format"`
	Version   uint64      `json:"version"`
	Codec     string      `json:"codec"`
	CreatedAt time.Time   `json:"created_at"`
	Previous  string      `json:"previous,omitempty"` // blob of the version this one derives from
	Tables    []TableInfo `json:"tables"`
}

// TableInfo describes a single table blob.
type TableInfo struct {
	Name        string `json:"name"`
	Blob        string `json:"blob"`
	RowCount    int    `json:"row_count"`
	ChunkCount  int    `json:"chunk_count"`
	Compression string `json:"compression"`
}

// newName returns a fresh blob name for a manifest of version. Concurrent
// writers of the same version never share a name.
func newName(version uint64) string {
	return fmt.Sprintf("%sMANIFEST-%06d-%s.json", Prefix, version, uuid.NewString())
}

// Store reads and commits manifests.
type Store struct {
	blobs     blobstore.Store
	committer blobstore.Committer
	codec     codec.Codec
}

// NewStore creates a manifest store. A nil committer defaults to a
// blobstore.StoreCommitter on blobs, a nil codec to codec.Default.
func NewStore(blobs blobstore.Store, committer blobstore.Committer, c codec.Codec) *Store {
	if committer == nil {
		committer = blobstore.NewStoreCommitter(blobs)
	}
	if c == nil {
		c = codec.Default
	}
	return &Store{blobs: blobs, committer: committer, codec: c}
}

// Latest returns the latest committed version, 0 if none.
func (s *Store) Latest(ctx context.Context) (uint64, error) {
	v, _, err := s.committer.Latest(ctx)
	return v, err
}

// Load returns the latest committed manifest. Without any commit it returns an
// empty manifest of version 0.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	version, name, err := s.committer.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return &Manifest{Format: FormatVersion, Codec: s.codec.Name()}, nil
	}
	return s.read(ctx, name)
}

// LoadVersion returns the manifest of an earlier committed version by
// following the Previous links back from the latest one.
func (s *Store) LoadVersion(ctx context.Context, version uint64) (*Manifest, error) {
	latest, name, err := s.committer.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 || version > latest {
		return nil, fmt.Errorf("%w: version %d (latest %d)", ErrVersionNotFound, version, latest)
	}
	for {
		m, err := s.read(ctx, name)
		if err != nil {
			return nil, err
		}
		if m.Version == version {
			return m, nil
		}
		if m.Previous == "" || m.Version < version {
			return nil, fmt.Errorf("%w: version %d", ErrVersionNotFound, version)
		}
		name = m.Previous
	}
}

func (s *Store) read(ctx context.Context, name string) (*Manifest, error) {
	b, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	if m.Format != FormatVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedFormat, m.Format, FormatVersion)
	}
	return &m, nil
}

// Commit writes m as the version following base and publishes it.
//
// base is the version the caller's state derives from. If another writer
// committed in between, the error matches blobstore.ErrConcurrentModification
// and nothing is published. On success m.Version holds the new version.
func (s *Store) Commit(ctx context.Context, base uint64, m *Manifest) error {
	latest, previous, err := s.committer.Latest(ctx)
	if err != nil {
		return err
	}
	if latest != base {
		return fmt.Errorf("%w: base version %d, latest is %d", blobstore.ErrConcurrentModification, base, latest)
	}

	next := base + 1
	m.Format = FormatVersion
	m.Version = next
	m.Codec = s.codec.Name()
	m.Previous = previous
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := s.codec.Marshal(m)
	if err != nil {
		return err
	}
	name := newName(next)
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return err
	}
	if err := s.committer.Commit(ctx, next, name); err != nil {
		_ = s.blobs.Delete(ctx, name)
		return err
	}
	return nil
}
