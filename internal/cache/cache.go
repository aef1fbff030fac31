// Package cache is a keyed TTL cache held in memory with optional JSON spill to disk.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/util"
)

type entry struct {
	data   interface{}
	expiry time.Time
}

// fileEntry is the on-disk layout; Expiry is unix milliseconds.
type fileEntry struct {
	Data   json.RawMessage `json:"data"`
	Expiry int64           `json:"expiry"`
}

// Cache is safe for concurrent use. Reads run in parallel, writes are serialized and
// the last writer wins.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	dir   string
	group singleflight.Group
	log   *util.Logger

	now func() time.Time
}

func New(dir string) *Cache {
	return &Cache{
		items: make(map[string]entry),
		dir:   dir,
		log:   util.NewLogger("component", "cache"),
		now:   time.Now,
	}
}

// Init creates the spill directory.
func (c *Cache) Init() error {
	if c.dir == "" {
		return nil
	}
	return os.MkdirAll(c.dir, 0o755)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, util.SafeFileName(key)+".json")
}

// Clear drops key from memory and disk.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	c.group.Forget(key)
	if c.dir == "" {
		return
	}
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Warn(common.ErrCodeCacheWriteFailed, common.ErrMsgCacheWriteFailed, "remove cache file", "key", key, "error", err.Error())
	}
}

// ClearAll empties memory and removes every spilled entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
	if c.dir == "" {
		return
	}
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		_ = os.Remove(filepath.Join(c.dir, f.Name()))
	}
}

// Len returns the number of entries held in memory, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !e.expiry.After(c.now()) {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) set(key string, data interface{}, expiry time.Time) {
	c.mu.Lock()
	c.items[key] = entry{data: data, expiry: expiry}
	c.mu.Unlock()
}

func (c *Cache) readFile(key string, out interface{}) (time.Time, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn(common.ErrCodeCacheReadFailed, common.ErrMsgCacheReadFailed, "read cache file", "key", key, "error", err.Error())
		}
		return time.Time{}, false
	}
	var fe fileEntry
	if err := json.Unmarshal(raw, &fe); err != nil {
		c.log.Warn(common.ErrCodeCacheReadFailed, common.ErrMsgCacheReadFailed, "decode cache file", "key", key, "error", err.Error())
		return time.Time{}, false
	}
	expiry := time.UnixMilli(fe.Expiry)
	if !expiry.After(c.now()) {
		return time.Time{}, false
	}
	if err := json.Unmarshal(fe.Data, out); err != nil {
		c.log.Warn(common.ErrCodeCacheReadFailed, common.ErrMsgCacheReadFailed, "decode cached value", "key", key, "error", err.Error())
		return time.Time{}, false
	}
	return expiry, true
}

func (c *Cache) writeFile(key string, data interface{}, expiry time.Time) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Warn(common.ErrCodeCacheWriteFailed, common.ErrMsgCacheWriteFailed, "encode cached value", "key", key, "error", err.Error())
		return
	}
	raw, err := json.Marshal(fileEntry{Data: payload, Expiry: expiry.UnixMilli()})
	if err != nil {
		return
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		c.log.Warn(common.ErrCodeCacheWriteFailed, common.ErrMsgCacheWriteFailed, "write cache file", "key", key, "error", err.Error())
	}
}

// WithCache returns the live value under key, or runs producer and stores its result for
// ttl. With persist set, a live value spilled to disk is reused before running producer
// and fresh values are written back. Producer errors are returned and never cached.
// Concurrent misses on one key share a single producer call.
func WithCache[T any](c *Cache, key string, producer func() (T, error), ttl time.Duration, persist bool) (T, error) {
	if v, ok := c.get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	persist = persist && c.dir != ""

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
		if persist {
			var fromDisk T
			if expiry, ok := c.readFile(key, &fromDisk); ok {
				c.set(key, fromDisk, expiry)
				return fromDisk, nil
			}
		}

		data, err := producer()
		if err != nil {
			return nil, err
		}
		expiry := c.now().Add(ttl)
		c.set(key, data, expiry)
		if persist {
			c.writeFile(key, data, expiry)
		}
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T", key, v)
	}
	return typed, nil
}
