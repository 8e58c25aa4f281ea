package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "list-1/report.csv", []byte("a,b\n"), "text/csv"))

	rc, err := store.Open(ctx, "list-1/report.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n", string(body))

	require.NoError(t, store.Delete(ctx, "list-1/report.csv"))
	_, err = store.Open(ctx, "list-1/report.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, store.Delete(ctx, "list-1/report.csv"))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Put(context.Background(), "../outside.csv", []byte("x"), ""))
	_, err = store.Open(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "list-1/stale.pdf", []byte("old"), "application/pdf"))
	require.NoError(t, store.Put(ctx, "list-1/fresh.pdf", []byte("new"), "application/pdf"))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "list-1", "stale.pdf"), stale, stale))

	var _ Sweeper = store
	deleted, err := store.CleanupOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"list-1/stale.pdf"}, deleted)

	_, err = store.Open(ctx, "list-1/stale.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	rc, err := store.Open(ctx, "list-1/fresh.pdf")
	require.NoError(t, err)
	assert.NoError(t, rc.Close())
}

func TestLocalStorageCleanupHonoursCancellation(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "a.csv", []byte("x"), "text/csv"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.CleanupOlderThan(ctx, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}
