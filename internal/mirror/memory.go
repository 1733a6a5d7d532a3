package mirror

import (
	"errors"
	"fmt"
	"pickme/internal/structures"
	"sync"

	"github.com/coocood/freecache"
	"go.uber.org/atomic"
)

// minCacheBytes is the smallest arena freecache accepts without resizing.
const minCacheBytes = 512 * 1024

// MemoryMirror keeps mirrored values in a freecache arena without expiry and
// tracks whether anything changed since the last persist. Values larger than
// freecache's per-entry limit (1/1024 of the arena) live in an overflow map.
type MemoryMirror struct {
	mu       sync.Mutex
	cache    *freecache.Cache
	overflow map[string][]byte
	dirty    atomic.Bool
}

func NewMemoryMirror(conf *structures.Config) *MemoryMirror {
	size := conf.Mirror.CacheSize * 1024 * 1024
	if size < minCacheBytes {
		size = minCacheBytes
	}
	return &MemoryMirror{
		cache:    freecache.NewCache(size),
		overflow: make(map[string][]byte),
	}
}

func (m *MemoryMirror) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.overflow[key]; ok {
		return append([]byte(nil), val...), nil
	}
	val, err := m.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mirror get %q: %w", key, err)
	}
	return val, nil
}

func (m *MemoryMirror) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.put(key, value); err != nil {
		return err
	}
	m.dirty.Store(true)
	return nil
}

// Load puts restored entries without marking the mirror dirty.
func (m *MemoryMirror) Load(entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range entries {
		if err := m.put(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryMirror) put(key string, value []byte) error {
	err := m.cache.Set([]byte(key), value, 0)
	if errors.Is(err, freecache.ErrLargeEntry) {
		m.cache.Del([]byte(key))
		m.overflow[key] = append([]byte(nil), value...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror set %q: %w", key, err)
	}
	delete(m.overflow, key)
	return nil
}

// Snapshot returns a copy of every entry and clears the dirty flag. The flag
// is raised again by any Set that lands afterwards.
func (m *MemoryMirror) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, int(m.cache.EntryCount())+len(m.overflow))
	it := m.cache.NewIterator()
	for entry := it.Next(); entry != nil; entry = it.Next() {
		out[string(entry.Key)] = append([]byte(nil), entry.Value...)
	}
	for key, value := range m.overflow {
		out[key] = append([]byte(nil), value...)
	}
	m.dirty.Store(false)
	return out
}

func (m *MemoryMirror) Dirty() bool {
	return m.dirty.Load()
}

// MarkDirty re-flags the mirror after a failed persist.
func (m *MemoryMirror) MarkDirty() {
	m.dirty.Store(true)
}
