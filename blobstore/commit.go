package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Committer publishes numbered manifest versions.
//
// A commit of version v succeeds only if the latest committed version is v-1;
// otherwise ErrConcurrentModification is returned and the caller must reload.
type Committer interface {
	// Latest returns the newest committed version and its manifest name.
	// It returns version 0 when nothing was committed yet.
	Latest(ctx context.Context) (uint64, string, error)
	// Commit publishes manifest as version.
	Commit(ctx context.Context, version uint64, manifest string) error
}

// CurrentName is the blob holding the commit pointer of a StoreCommitter.
const CurrentName = "CURRENT"

// StoreCommitter keeps the commit pointer in a CURRENT blob.
//
// The compare-and-swap is serialized by a mutex, so it only protects writers
// sharing one StoreCommitter. Use a conditional-write backend such as
// s3.DDBCommitter for writers in different processes.
type StoreCommitter struct {
	store Store
	mu    sync.Mutex
}

// NewStoreCommitter creates a committer backed by store.
func NewStoreCommitter(store Store) *StoreCommitter {
	return &StoreCommitter{store: store}
}

// Latest implements Committer.
func (c *StoreCommitter) Latest(ctx context.Context) (uint64, string, error) {
	b, err := c.store.Open(ctx, CurrentName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, "", nil
		}
		return 0, "", err
	}
	defer b.Close()

	data, err := ReadAll(ctx, b)
	if err != nil {
		return 0, "", err
	}
	return parseCurrent(data)
}

// Commit implements Committer.
func (c *StoreCommitter) Commit(ctx context.Context, version uint64, manifest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	latest, _, err := c.Latest(ctx)
	if err != nil {
		return err
	}
	if version != latest+1 {
		return fmt.Errorf("%w: version %d, latest is %d", ErrConcurrentModification, version, latest)
	}
	return c.store.Put(ctx, CurrentName, formatCurrent(version, manifest))
}

func formatCurrent(version uint64, manifest string) []byte {
	return []byte(strconv.FormatUint(version, 10) + " " + manifest + "\n")
}

func parseCurrent(data []byte) (uint64, string, error) {
	line := strings.TrimSuffix(string(data), "\n")
	v, manifest, ok := strings.Cut(line, " ")
	if !ok || manifest == "" {
		return 0, "", fmt.Errorf("blobstore: malformed %s pointer %q", CurrentName, line)
	}
	version, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("blobstore: malformed %s version: %w", CurrentName, err)
	}
	return version, manifest, nil
}
