package providers

import "pickme/internal/structures"

type instrumentedCache struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *instrumentedCache) Get(revision uint64, key string) ([]byte, bool) {
	val, ok := c.inner.Get(revision, key)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return val, ok
}

func (c *instrumentedCache) Set(revision uint64, key string, value []byte) {
	c.inner.Set(revision, key, value)
}

// NewInstrumentedCacheProvider counts hits and misses of the response cache.
// A disabled cache is returned as is and never reports misses.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, noop := inner.(*noopCache); noop {
		return inner
	}
	return &instrumentedCache{inner: inner, metrics: metrics}
}
