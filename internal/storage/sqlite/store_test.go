package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()

	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newService(t *testing.T, store *Store) *link.Service {
	t.Helper()

	encoder, err := allocator.NewEncoder("01", 3)
	require.NoError(t, err)
	return link.NewService(allocator.New(encoder, store), store)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}

func TestCursorPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)

	svc := newService(t, store)
	var ids []string
	for i := 0; i < 3; i++ {
		l, err := svc.Shorten(ctx, "https://example.com/a")
		require.NoError(t, err)
		ids = append(ids, l.ShortID)
	}
	require.NoError(t, store.Close())

	reopened := openStore(t, path)
	svc = newService(t, reopened)
	for i := 0; i < 5; i++ {
		l, err := svc.Shorten(ctx, "https://example.com/b")
		require.NoError(t, err)
		ids = append(ids, l.ShortID)
	}

	assert.Equal(t, []string{"000", "111", "100", "101", "001", "110", "011", "010"}, ids)

	_, err = svc.Shorten(ctx, "https://example.com/c")
	assert.ErrorIs(t, err, allocator.ErrNamespaceExhausted)
}

func TestLinkLifecycle(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "links.db"))
	svc := newService(t, store)
	ctx := context.Background()

	created, err := svc.Shorten(ctx, "https://example.com/page?q=1")
	require.NoError(t, err)
	assert.Equal(t, "000", created.ShortID)

	for i := 0; i < 3; i++ {
		l, err := svc.Resolve(ctx, created.ShortID)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page?q=1", l.OriginalURL)
		assert.Equal(t, int64(i+1), l.Clicks)
	}

	got, err := svc.Get(ctx, created.ShortID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Clicks)

	active, err := svc.ActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"000"}, active)

	require.NoError(t, svc.Delete(ctx, created.ShortID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ShortID), link.ErrNotFound)

	_, err = svc.Resolve(ctx, created.ShortID)
	assert.ErrorIs(t, err, link.ErrNotFound)

	pool, err := svc.ReusePool(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"000"}, pool)

	reused, err := svc.Shorten(ctx, "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "000", reused.ShortID)
	assert.Equal(t, int64(0), reused.Clicks)

	pool, err = svc.ReusePool(ctx)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestDeleteReleasesInFIFOOrder(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "links.db"))
	svc := newService(t, store)
	ctx := context.Background()

	x, err := svc.Shorten(ctx, "https://x.example.com")
	require.NoError(t, err)
	y, err := svc.Shorten(ctx, "https://y.example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, x.ShortID))
	require.NoError(t, svc.Delete(ctx, y.ShortID))

	first, err := svc.Shorten(ctx, "https://1.example.com")
	require.NoError(t, err)
	second, err := svc.Shorten(ctx, "https://2.example.com")
	require.NoError(t, err)

	assert.Equal(t, x.ShortID, first.ShortID)
	assert.Equal(t, y.ShortID, second.ShortID)
}

func TestFailedCommitRollsBackAllocation(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "links.db"))
	ctx := context.Background()

	encoder, err := allocator.NewEncoder("01", 3)
	require.NoError(t, err)
	alloc := allocator.New(encoder, store)

	// a link row already occupying the next identifier makes the insert fail
	require.NoError(t, store.Atomic(ctx, func(txn allocator.Txn) error {
		return txn.(link.Txn).CreateLink(ctx, link.Link{ShortID: "000", OriginalURL: "https://example.com"})
	}))

	svc := link.NewService(alloc, store)
	_, err = svc.Shorten(ctx, "https://example.com/dup")
	assert.Error(t, err)

	status, err := alloc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), status.Remaining, "cursor must not advance")
}

func TestInvalidURLRejected(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "links.db"))
	svc := newService(t, store)
	ctx := context.Background()

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "http://"} {
		_, err := svc.Shorten(ctx, raw)
		assert.ErrorIs(t, err, link.ErrInvalidURL, raw)
	}

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), status.Remaining)
}

func TestReleaseValidationAgainstStore(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "links.db"))
	ctx := context.Background()

	encoder, err := allocator.NewEncoder("01", 3)
	require.NoError(t, err)
	alloc := allocator.New(encoder, store)

	id, err := alloc.Allocate(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, alloc.Release(ctx, "111"), allocator.ErrInvalidRelease)
	require.NoError(t, alloc.Release(ctx, id))
	assert.ErrorIs(t, alloc.Release(ctx, id), allocator.ErrInvalidRelease)

	status, err := alloc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Released)
	assert.Equal(t, int64(7), status.Remaining)
}
