package providers

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	"guildpulse/internal/structures"
)

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// ResponseCache holds the rendered JSON of the read API, keyed by route.
// Entries live for cache.ttl, rounded up to whole seconds.
type ResponseCache struct {
	store  *freecache.Cache
	ttl    int
	logger Logger
	tooBig atomic.Bool
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeAPI, "Response cache off")
		return disabledCache{}
	}

	ttl := int((conf.Cache.TTL + time.Second - 1) / time.Second)
	ttl = max(ttl, 1)
	logger.Infof(TypeAPI, "Response cache: %dMB, entries kept %ds", conf.Cache.Size, ttl)

	return &ResponseCache{
		store:  freecache.NewCache(conf.Cache.Size << 20),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	body, err := c.store.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return body, true
}

// Set stores body under key. A body over the per-entry limit (1/1024 of the
// cache) is not cached; the first such refusal is logged.
func (c *ResponseCache) Set(key string, body []byte) {
	err := c.store.Set([]byte(key), body, c.ttl)
	if errors.Is(err, freecache.ErrLargeEntry) && c.tooBig.CompareAndSwap(false, true) {
		c.logger.Warnf(TypeAPI, "Response %q (%d bytes) too large to cache, raise cache.size", key, len(body))
	}
}

type disabledCache struct{}

func (disabledCache) Get(string) ([]byte, bool) { return nil, false }
func (disabledCache) Set(string, []byte)        {}
