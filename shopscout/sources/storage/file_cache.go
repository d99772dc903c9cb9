package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"shopscout/shopscout/services/crawler"
	"shopscout/shopscout/utils/logging"

	"go.uber.org/zap"
)

// FileCacheStore keeps the discovery cache as a JSON document on local disk.
type FileCacheStore struct {
	path string
}

func NewFileCacheStore(path string) *FileCacheStore {
	return &FileCacheStore{path: path}
}

func (s *FileCacheStore) Path() string { return s.path }

// Load reads the cache. A missing file is an empty cache; so is a corrupt one,
// which is logged and will be replaced by the next save.
func (s *FileCacheStore) Load(ctx context.Context) (crawler.DiscoveryCache, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return crawler.DiscoveryCache{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", s.path, err)
	}
	return decodeCache(data, s.path), nil
}

// Save writes to a temporary file in the same directory and renames it over
// the old cache, so readers never observe a partial document.
func (s *FileCacheStore) Save(ctx context.Context, cache crawler.DiscoveryCache) error {
	data, err := encodeCache(cache)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing cache: %w", err)
	}
	return nil
}

func encodeCache(cache crawler.DiscoveryCache) ([]byte, error) {
	if cache == nil {
		cache = crawler.DiscoveryCache{}
	}
	data, err := json.MarshalIndent(cache.Normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding cache: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeCache(data []byte, source string) crawler.DiscoveryCache {
	var cache crawler.DiscoveryCache
	if err := json.Unmarshal(data, &cache); err != nil {
		logging.ErrorLogger.Warn("discovery cache is malformed, starting empty",
			zap.String("source", source),
			zap.Error(err),
		)
		return crawler.DiscoveryCache{}
	}
	if cache == nil {
		return crawler.DiscoveryCache{}
	}
	return cache.Normalize()
}
