package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart-cache.json")

	c, err := OpenFileCache(path)
	require.NoError(t, err)
	_, ok := c.Get("cartItems:cart_1")
	assert.False(t, ok)

	require.NoError(t, c.Set("cartItems:cart_1", `{"items":[]}`))
	require.NoError(t, c.Set("cartItems:cart_2", "two"))
	require.NoError(t, c.Remove("cartItems:cart_2"))
	require.NoError(t, c.Remove("never-set"))

	reopened, err := OpenFileCache(path)
	require.NoError(t, err)
	v, ok := reopened.Get("cartItems:cart_1")
	require.True(t, ok)
	assert.Equal(t, `{"items":[]}`, v)
	_, ok = reopened.Get("cartItems:cart_2")
	assert.False(t, ok)
}

func TestOpenFileCacheRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := OpenFileCache(path)
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	var c Cache = NewMemoryCache()
	require.NoError(t, c.Set("k", "v"))
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	require.NoError(t, c.Remove("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}
