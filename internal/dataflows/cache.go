package dataflows

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/models"
)

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// ttlCache is a small in-memory cache with a fixed time to live.
type ttlCache[V any] struct {
	mu    sync.RWMutex
	items map[string]cacheEntry[V]
	ttl   time.Duration
	now   func() time.Time
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{items: make(map[string]cacheEntry[V]), ttl: ttl, now: time.Now}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.storedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[V]) set(key string, v V) {
	c.mu.Lock()
	c.items[key] = cacheEntry[V]{value: v, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *ttlCache[V]) clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry[V])
	c.mu.Unlock()
}

// fileCache stores JSON encoded results under dir, expiring by mtime.
type fileCache struct {
	dir string
	ttl time.Duration
}

func (fc *fileCache) path(method, symbol string) string {
	hash := md5.Sum([]byte(method + "|" + symbol))
	return filepath.Join(fc.dir, fmt.Sprintf("%s_%x.json", method, hash))
}

func (fc *fileCache) get(method, symbol string, result any) bool {
	if fc == nil {
		return false
	}
	p := fc.path(method, symbol)
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > fc.ttl {
		_ = os.Remove(p)
		return false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

func (fc *fileCache) set(method, symbol string, data any) error {
	if fc == nil {
		return nil
	}
	if err := os.MkdirAll(fc.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(fc.path(method, symbol), raw, 0o644)
}

// CachedMarketData memoizes a MarketData source in memory and, when a cache
// directory is configured, on disk. Errors are never cached.
type CachedMarketData struct {
	inner MarketData
	mem   *ttlCache[json.RawMessage]
	disk  *fileCache
	log   *log.Logger
}

// NewCachedMarketData wraps inner. An empty dir keeps the cache in memory only.
func NewCachedMarketData(inner MarketData, ttl time.Duration, dir string, logger *log.Logger) *CachedMarketData {
	c := &CachedMarketData{
		inner: inner,
		mem:   newTTLCache[json.RawMessage](ttl),
		log:   logger,
	}
	if dir != "" {
		c.disk = &fileCache{dir: dir, ttl: ttl}
	}
	return c
}

// cachedCall serves method/symbol from cache or calls load and stores the result.
func cachedCall[V any](c *CachedMarketData, method, symbol string, load func() (V, error)) (V, error) {
	key := method + "|" + symbol
	var v V
	if raw, ok := c.mem.get(key); ok && json.Unmarshal(raw, &v) == nil {
		return v, nil
	}
	if c.disk.get(method, symbol, &v) {
		if raw, err := json.Marshal(v); err == nil {
			c.mem.set(key, raw)
		}
		return v, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		c.mem.set(key, raw)
	}
	if err := c.disk.set(method, symbol, v); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Str("method", method).Msg("write market data cache")
	}
	return v, nil
}

func (c *CachedMarketData) CompanyName(ctx context.Context, symbol string) (string, error) {
	return cachedCall(c, "name", symbol, func() (string, error) { return c.inner.CompanyName(ctx, symbol) })
}

func (c *CachedMarketData) Beta(ctx context.Context, symbol string) (float64, error) {
	return cachedCall(c, "beta", symbol, func() (float64, error) { return c.inner.Beta(ctx, symbol) })
}

func (c *CachedMarketData) Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	return cachedCall(c, "fundamentals", symbol, func() (*models.Fundamentals, error) {
		return c.inner.Fundamentals(ctx, symbol)
	})
}

func (c *CachedMarketData) Technicals(ctx context.Context, symbol string) (*models.Technicals, error) {
	return cachedCall(c, "technicals", symbol, func() (*models.Technicals, error) {
		return c.inner.Technicals(ctx, symbol)
	})
}

func (c *CachedMarketData) PriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	return cachedCall(c, "history", symbol, func() ([]models.PricePoint, error) {
		return c.inner.PriceHistory(ctx, symbol)
	})
}

// Clear drops the in-memory entries.
func (c *CachedMarketData) Clear() {
	c.mem.clear()
}
