package dashboard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/inetdash/internal/model"
)

// ViewCache is a concurrent-safe LRU cache of view models keyed by selected
// entity, with optional TTL expiration.
type ViewCache struct {
	mu         sync.RWMutex
	entries    map[string]*viewCacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type viewCacheEntry struct {
	view      model.ViewModel
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewViewCache creates a ViewCache holding at most maxEntries views. A zero
// ttl keeps entries until they are evicted. A non-positive maxEntries
// disables caching.
func NewViewCache(maxEntries int, ttl time.Duration) *ViewCache {
	return &ViewCache{
		entries:    make(map[string]*viewCacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func viewKey(sel model.Selection) string {
	if sel.IsAll() {
		return model.AllEntities
	}
	return sel.Entity
}

// Get retrieves a cached view. The boolean is false on a miss or expiration.
func (c *ViewCache) Get(sel model.Selection) (model.ViewModel, bool) {
	key := viewKey(sel)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return model.ViewModel{}, false
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return model.ViewModel{}, false
	}

	// Move to back (most recently used).
	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry.view, true
}

// Put stores a view, evicting the least recently used entry when full.
func (c *ViewCache) Put(sel model.Selection, vm model.ViewModel) {
	if c.maxEntries <= 0 {
		return
	}
	key := viewKey(sel)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &viewCacheEntry{view: vm, createdAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &viewCacheEntry{view: vm, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Purge removes every cached view.
func (c *ViewCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*viewCacheEntry)
	c.order = nil
}

// Stats returns cache performance statistics.
func (c *ViewCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *ViewCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
