package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Cache stores provider results keyed by provider and normalized query.
type Cache interface {
	Get(ctx context.Context, key string) ([]Result, bool)
	Put(ctx context.Context, key string, results []Result) error
}

type cacheEntry struct {
	Results  []Result  `json:"results"`
	StoredAt time.Time `json:"storedAt"`
}

// FileCache keeps entries in memory and mirrors them to a JSON file.
type FileCache struct {
	mu     sync.RWMutex
	inMem  map[string]cacheEntry
	path   string
	ttl    time.Duration
	loaded bool
	now    func() time.Time
}

// NewFileCache persists to path; an empty path keeps the cache in memory only.
func NewFileCache(path string, ttl time.Duration) *FileCache {
	return &FileCache{
		inMem: map[string]cacheEntry{},
		path:  path,
		ttl:   ttl,
		now:   time.Now,
	}
}

// DefaultCachePath is plagcheck/search_cache.json under the user config dir.
func DefaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "plagcheck", "search_cache.json")
}

func (c *FileCache) Get(_ context.Context, key string) ([]Result, bool) {
	_ = c.Load()

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.inMem[key]
	if !ok || c.expired(e) {
		return nil, false
	}
	return e.Results, true
}

func (c *FileCache) Put(_ context.Context, key string, results []Result) error {
	_ = c.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inMem[key] = cacheEntry{Results: results, StoredAt: c.now()}
	return c.saveLocked()
}

// Load reads the backing file once. A missing or corrupt file leaves the
// cache empty.
func (c *FileCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}
	c.loaded = true

	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var m map[string]cacheEntry
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	for k, v := range m {
		if !c.expired(v) {
			c.inMem[k] = v
		}
	}
	return nil
}

func (c *FileCache) expired(e cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.StoredAt) > c.ttl
}

func (c *FileCache) saveLocked() error {
	if c.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c.inMem, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// cacheKey is provider|query with case and punctuation folded away.
func cacheKey(provider, query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	var b strings.Builder
	b.Grow(len(query))
	prevSpace := false

	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return provider + "|" + strings.TrimSpace(b.String())
}
