package providers

import "guildpulse/internal/structures"

type countingCache struct {
	CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c countingCache) Get(key string) ([]byte, bool) {
	body, ok := c.CacheProviderInterface.Get(key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return body, ok
}

// NewInstrumentedCacheProvider builds the response cache and reports its
// hit ratio. A disabled cache is returned bare and reports nothing.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	cache := NewCacheProvider(conf, logger)
	if _, off := cache.(disabledCache); off {
		return cache
	}
	return countingCache{CacheProviderInterface: cache, metrics: metrics}
}
