package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract exercises the Store behavior shared by all drivers.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get absent key", func(t *testing.T) {
		s := newStore(t)
		value, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "so-cart", `[{"productId":"880RR"}]`))
		value, ok, err := s.Get(ctx, "so-cart")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"productId":"880RR"}]`, value)
	})

	t.Run("set replaces previous value", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "one"))
		require.NoError(t, s.Set(ctx, "k", "two"))
		value, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "two", value)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Delete(ctx, "k"))
		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete absent key is not an error", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Delete(ctx, "never-existed"))
	})
}

func Test_MemoryStore_Contract(t *testing.T) {
	storeContract(t, func(_ *testing.T) Store {
		return NewMemoryStore()
	})
}

func Test_FileStore_Contract(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
		require.NoError(t, err)
		return s
	})
}

func Test_FileStore_PersistsAcrossInstances(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "store.json")
	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "so-cart", "[]"))
	require.NoError(t, first.Set(context.Background(), "so-users", `[{"id":"u1"}]`))

	// when a fresh instance opens the same file
	second, err := NewFileStore(path)
	require.NoError(t, err)

	// then
	value, ok, err := second.Get(context.Background(), "so-users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"u1"}]`, value)
}

func Test_FileStore_CorruptFileDegradesToEmpty(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json{{{"), 0o600))

	// when
	s, err := NewFileStore(path)

	// then
	require.NoError(t, err)
	_, ok, err := s.Get(context.Background(), "so-cart")
	require.NoError(t, err)
	assert.False(t, ok)

	// and the next write replaces the corrupt file
	require.NoError(t, s.Set(context.Background(), "so-cart", "[]"))
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := reopened.Get(context.Background(), "so-cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)
}
