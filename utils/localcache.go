package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cache is a small synchronous key-value store used for advisory data that
// may be lost: the last-known-good cart snapshot.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryCache is a Cache held in process memory
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *MemoryCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *MemoryCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

// FileCache is a Cache persisted as a single JSON object on disk, so
// snapshots survive a restart of the server.
type FileCache struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFileCache loads path if it exists. A missing file starts an empty cache.
func OpenFileCache(path string) (*FileCache, error) {
	c := &FileCache{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.values); err != nil {
			return nil, fmt.Errorf("parse cache file %s: %w", path, err)
		}
	}
	return c, nil
}

func (c *FileCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *FileCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return c.flush()
}

func (c *FileCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; !ok {
		return nil
	}
	delete(c.values, key)
	return c.flush()
}

// flush writes to a temp file and renames it over the cache file
func (c *FileCache) flush() error {
	data, err := json.Marshal(c.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return os.Rename(tmp, c.path)
}
