package dashboard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inetdash/internal/model"
)

func sel(entity string) model.Selection { return model.Selection{Entity: entity} }

func TestViewCache_BasicGetPut(t *testing.T) {
	cache := NewViewCache(10, time.Hour)

	_, ok := cache.Get(sel("Afghanistan"))
	assert.False(t, ok)

	vm := model.ViewModel{Selection: "Afghanistan", Title: "t"}
	cache.Put(sel("Afghanistan"), vm)

	got, ok := cache.Get(sel("Afghanistan"))
	require.True(t, ok)
	assert.Equal(t, vm, got)

	_, ok = cache.Get(sel("World"))
	assert.False(t, ok)
}

func TestViewCache_AllAndEmptyShareKey(t *testing.T) {
	cache := NewViewCache(10, 0)

	cache.Put(sel(""), model.ViewModel{Selection: "All"})
	got, ok := cache.Get(sel("All"))
	require.True(t, ok)
	assert.Equal(t, "All", got.Selection)
}

func TestViewCache_TTLExpiration(t *testing.T) {
	cache := NewViewCache(10, 50*time.Millisecond)

	cache.Put(sel("A"), model.ViewModel{Selection: "A"})
	_, ok := cache.Get(sel("A"))
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = cache.Get(sel("A"))
	assert.False(t, ok)

	cache.mu.RLock()
	_, exists := cache.entries["A"]
	cache.mu.RUnlock()
	assert.False(t, exists)
}

func TestViewCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewViewCache(10, 0)

	cache.Put(sel("A"), model.ViewModel{Selection: "A"})
	time.Sleep(5 * time.Millisecond)
	_, ok := cache.Get(sel("A"))
	assert.True(t, ok)
}

func TestViewCache_LRUEviction(t *testing.T) {
	cache := NewViewCache(3, time.Hour)

	cache.Put(sel("a"), model.ViewModel{})
	cache.Put(sel("b"), model.ViewModel{})
	cache.Put(sel("c"), model.ViewModel{})

	// Touch "a" so "b" becomes the oldest.
	_, _ = cache.Get(sel("a"))
	cache.Put(sel("d"), model.ViewModel{})

	_, ok := cache.Get(sel("a"))
	assert.True(t, ok)
	_, ok = cache.Get(sel("b"))
	assert.False(t, ok)
	_, ok = cache.Get(sel("c"))
	assert.True(t, ok)
	_, ok = cache.Get(sel("d"))
	assert.True(t, ok)
}

func TestViewCache_UpdateInPlace(t *testing.T) {
	cache := NewViewCache(2, time.Hour)

	cache.Put(sel("a"), model.ViewModel{Title: "old"})
	cache.Put(sel("a"), model.ViewModel{Title: "new"})

	got, ok := cache.Get(sel("a"))
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, 1, cache.Stats().Entries)
}

func TestViewCache_Disabled(t *testing.T) {
	cache := NewViewCache(0, time.Hour)

	cache.Put(sel("a"), model.ViewModel{})
	_, ok := cache.Get(sel("a"))
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestViewCache_PurgeAndStats(t *testing.T) {
	cache := NewViewCache(10, time.Hour)

	cache.Put(sel("a"), model.ViewModel{})
	_, _ = cache.Get(sel("a"))
	_, _ = cache.Get(sel("a"))
	_, _ = cache.Get(sel("b"))

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 10, stats.MaxEntries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)

	cache.Purge()
	assert.Equal(t, 0, cache.Stats().Entries)
	_, ok := cache.Get(sel("a"))
	assert.False(t, ok)
}

func TestViewCache_ConcurrentAccess(t *testing.T) {
	cache := NewViewCache(50, time.Hour)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				key := sel(fmt.Sprintf("e%d", (n+j)%60))
				cache.Put(key, model.ViewModel{Selection: key.Entity})
				if vm, ok := cache.Get(key); ok {
					assert.Equal(t, key.Entity, vm.Selection)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Stats().Entries, 50)
}
