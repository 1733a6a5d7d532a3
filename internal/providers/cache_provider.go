package providers

import (
	"pickme/internal/structures"
	"sync"
	"unsafe"

	"github.com/coocood/freecache"
)

// cacheTTL bounds how long a response lives when the snapshot never moves.
const cacheTTL = 60

// CacheProviderInterface caches encoded responses for one snapshot revision
// at a time. Entries of older revisions are unreachable.
type CacheProviderInterface interface {
	Get(revision uint64, key string) ([]byte, bool)
	Set(revision uint64, key string, value []byte)
}

// RevisionCache flushes the whole freecache when a newer revision is stored,
// so memory is never spent on responses nobody can ask for again.
type RevisionCache struct {
	mu       sync.RWMutex
	revision uint64
	cache    *freecache.Cache
	ttl      int
	logger   Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Response cache disabled")
		return &noopCache{}
	}
	logger.Infof(TypeApp, "Response cache initialized: %dMB, TTL=%ds", conf.Cache.Size, cacheTTL)
	return &RevisionCache{
		cache:  freecache.NewCache(conf.Cache.Size * 1024 * 1024),
		ttl:    cacheTTL,
		logger: logger,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// freecache copies keys internally, so the result is never written to.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *RevisionCache) Get(revision uint64, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if revision != c.revision {
		return nil, false
	}
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set drops responses computed from a snapshot older than the cached one.
func (c *RevisionCache) Set(revision uint64, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case revision < c.revision:
		return
	case revision > c.revision:
		if n := c.cache.EntryCount(); n > 0 {
			c.logger.Debugf(TypeHTTP, "Revision %d supersedes %d, dropping %d cached responses", revision, c.revision, n)
		}
		c.cache.Clear()
		c.revision = revision
	}
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

// Revision reports the revision the cached entries belong to.
func (c *RevisionCache) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

type noopCache struct{}

func (n *noopCache) Get(_ uint64, _ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ uint64, _ string, _ []byte)      {}
