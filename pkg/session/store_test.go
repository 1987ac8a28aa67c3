package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v"))
	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestScopedStoresAreIsolated(t *testing.T) {
	base := NewMemoryStore()
	ctx := context.Background()
	alice := Scoped(base, "alice")
	bob := Scoped(base, "bob")

	require.NoError(t, alice.Set(ctx, KeyRoundsCompleted, "3"))
	_, ok, err := bob.Get(ctx, KeyRoundsCompleted)
	require.NoError(t, err)
	assert.False(t, ok)

	raw, ok, err := base.Get(ctx, "client:alice:"+KeyRoundsCompleted)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", raw)
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	ctx := context.Background()

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	require.NoError(t, store.Delete(ctx, "a"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	_, ok, _ := reopened.Get(ctx, "a")
	assert.False(t, ok)
	value, ok, _ := reopened.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, "2", value)
}

func TestOpenFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := OpenFileStore(path)
	require.Error(t, err)
}

func TestFileStoreClosed(t *testing.T) {
	ctx := context.Background()
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Close())

	_, _, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Set(ctx, "a", "2"), ErrStoreClosed)
	assert.ErrorIs(t, store.Delete(ctx, "a"), ErrStoreClosed)
}
