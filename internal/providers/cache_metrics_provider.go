package providers

import "fermmon/internal/structures"

// instrumentedCache reports every lookup as a hit or a miss.
type instrumentedCache struct {
	CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *instrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.CacheProviderInterface.Get(key)
	if !ok {
		c.metrics.IncCacheMisses()
		return nil, false
	}
	c.metrics.IncCacheHits()
	return val, true
}

// NewInstrumentedCacheProvider builds the analysis response cache. With the
// cache off there is nothing to count, so the noop cache is returned as is.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	cache := NewCacheProvider(conf, logger)
	if _, off := cache.(*noopCache); off {
		return cache
	}
	return &instrumentedCache{CacheProviderInterface: cache, metrics: metrics}
}
