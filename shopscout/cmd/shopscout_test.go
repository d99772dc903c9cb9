package main

import (
	"bytes"
	"path/filepath"
	"shopscout/shopscout/sources/storage"
	"shopscout/shopscout/utils/color"
	"shopscout/shopscout/utils/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintEvents(t *testing.T) {
	color.Disable()

	events := make(chan types.Event, 5)
	events <- types.PageEvent(1)
	events <- types.DetailEvent(&types.ProductRecord{Title: "Acme Widget", Images: []string{}}, types.Stats{Scanned: 1, Matched: 1, Total: 2})
	events <- types.DetailEvent(nil, types.Stats{Scanned: 2, Matched: 1, Total: 2})
	events <- types.SummaryEvent(types.RunSummary{RunID: "r-1", Strategy: "first_two", Scanned: 2, Matched: 1, UnusedBrands: []string{"zed"}, UnusedProducts: []string{}})
	close(events)

	var term, out bytes.Buffer
	require.NoError(t, printEvents(&term, &out, events))

	assert.Contains(t, term.String(), "scanning page 1")
	assert.Contains(t, term.String(), "unused brands: zed")
	assert.NotContains(t, term.String(), "unused products")
	assert.Contains(t, term.String(), "run r-1, strategy first_two")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"title":"Acme Widget"`)
}

func TestCacheSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	assert.Equal(t, path, cacheSource(storage.NewFileCacheStore(path)))

	cfg.MinIOBucket = "shopscout"
	assert.Equal(t, "minio bucket shopscout", cacheSource(&storage.MinIOClient{}))
}
