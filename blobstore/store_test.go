package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
}

func TestStore_Lifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			data := []byte("hello world, this is a test blob")

			require.NoError(t, store.Put(ctx, "tables/a.ctbl", data))

			blob, err := store.Open(ctx, "tables/a.ctbl")
			require.NoError(t, err)
			defer blob.Close()
			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err := blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			n, err = blob.ReadAt(ctx, make([]byte, 10), int64(len(data)-3))
			assert.Equal(t, 3, n)
			assert.ErrorIs(t, err, io.EOF)

			all, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, data, all)
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			require.NoError(t, store.Put(ctx, "x", []byte("first")))
			require.NoError(t, store.Put(ctx, "x", []byte("second!")))

			blob, err := store.Open(ctx, "x")
			require.NoError(t, err)
			defer blob.Close()
			got, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, "second!", string(got))
		})
	}
}

func TestStore_PutCopiesInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'z'

	blob, err := store.Open(ctx, "k")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestStore_NotFoundAndDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			_, err := store.Open(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Put(ctx, "gone", []byte("x")))
			require.NoError(t, store.Delete(ctx, "gone"))
			require.NoError(t, store.Delete(ctx, "gone"))

			_, err = store.Open(ctx, "gone")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			for _, n := range []string{"tables/b", "tables/a", "catalog/1", "CURRENT"} {
				require.NoError(t, store.Put(ctx, n, []byte(n)))
			}

			names, err := store.List(ctx, "tables/")
			require.NoError(t, err)
			assert.Equal(t, []string{"tables/a", "tables/b"}, names)

			names, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"CURRENT", "catalog/1", "tables/a", "tables/b"}, names)
		})
	}
}

func TestStore_EmptyBlob(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			require.NoError(t, store.Put(ctx, "empty", nil))

			blob, err := store.Open(ctx, "empty")
			require.NoError(t, err)
			defer blob.Close()
			assert.Equal(t, int64(0), blob.Size())

			got, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestLocalStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "nested/dir/blob.bin", []byte("payload")))

	_, err := os.Stat(filepath.Join(dir, "nested", "dir", "blob.bin"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "nested", "dir"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not survive a Put")

	blob, err := store.Open(ctx, "nested/dir/blob.bin")
	require.NoError(t, err)
	m, ok := blob.(Mappable)
	require.True(t, ok)
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
	require.NoError(t, blob.Close())
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreCommitter(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore()
	c := NewStoreCommitter(store)

	v, m, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Empty(t, m)

	require.NoError(t, c.Commit(ctx, 1, "catalog/00000001"))
	require.NoError(t, c.Commit(ctx, 2, "catalog/00000002"))

	err = c.Commit(ctx, 2, "catalog/other")
	assert.ErrorIs(t, err, ErrConcurrentModification)

	v, m, err = c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, "catalog/00000002", m)
}

func TestStoreCommitter_ConcurrentWriters(t *testing.T) {
	ctx := t.Context()
	c := NewStoreCommitter(NewMemoryStore())

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		conflict int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Commit(ctx, 1, "catalog/x")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, ErrConcurrentModification)
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, writers-1, conflict)
}

func TestStoreCommitter_Malformed(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, CurrentName, []byte("garbage")))

	_, _, err := NewStoreCommitter(store).Latest(ctx)
	assert.Error(t, err)
}
