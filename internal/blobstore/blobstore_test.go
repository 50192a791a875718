package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	fileID, err := store.Put(context.Background(), "tenant-a", []byte("hello world"), ".PDF")
	require.NoError(t, err)
	require.NotEmpty(t, fileID)

	rc, mime, err := store.Get(context.Background(), "tenant-a", fileID)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, "application/pdf", mime)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestGetCrossTenantNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	fileID, err := store.Put(context.Background(), "tenant-a", []byte("secret"), "txt")
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "tenant-b", fileID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), "tenant-a", "does-not-exist")
	require.NoError(t, err)
}

func TestDeleteThenGetNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	fileID, err := store.Put(context.Background(), "tenant-a", []byte("data"), "csv")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "tenant-a", fileID))

	_, _, err = store.Get(context.Background(), "tenant-a", fileID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatsForCountsBytes(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "tenant-a", []byte("abcde"), "txt")
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "tenant-a", []byte("xyz"), "txt")
	require.NoError(t, err)

	stats, err := store.StatsFor(context.Background(), "tenant-a")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Count)
	require.Equal(t, int64(8), stats.TotalBytes)
}

func TestPutRequiresTenant(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "", []byte("x"), "txt")
	require.ErrorIs(t, err, ErrInvalidTenant)
}
