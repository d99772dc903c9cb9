package storage

import (
	"context"
	"os"
	"path/filepath"
	"shopscout/shopscout/services/crawler"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheStoreMissingFile(t *testing.T) {
	store := NewFileCacheStore(filepath.Join(t.TempDir(), "brand_page_cache.json"))
	cache, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, crawler.DiscoveryCache{}, cache)
}

func TestFileCacheStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "brand_page_cache.json")
	store := NewFileCacheStore(path)

	require.NoError(t, store.Save(ctx, crawler.DiscoveryCache{"acme": {3, 1}, "other": {1}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"acme\": [\n    1,\n    3\n  ],\n  \"other\": [\n    1\n  ]\n}\n", string(raw))

	cache, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, crawler.DiscoveryCache{"acme": {1, 3}, "other": {1}}, cache)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileCacheStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brand_page_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cache, err := NewFileCacheStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cache)
}

func TestFileCacheStoreWithCrawler(t *testing.T) {
	ctx := context.Background()
	store := NewFileCacheStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, store.Save(ctx, crawler.DiscoveryCache{"acme": {2}}))

	c := crawler.New(crawler.Options{Cache: store})
	cache, err := c.LoadCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, cache["acme"])
}

func TestRunArchiveKey(t *testing.T) {
	assert.Equal(t, "runs/abc/products.json", RunArchiveKey("abc"))
}
