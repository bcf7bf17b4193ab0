// internal/tenant/evictor.go
//
// Eviction loop for Cache.  Every sweep interval it removes tenants idle
// longer than the TTL, then the least recently used ones when the map
// still exceeds its cap.  Every eviction is logged and counted.
package tenant

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/mosaic-cms/mosaic/internal/metrics"
)

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.ticker.C:
			c.sweep(time.Now())
		}
	}
}

// sweep runs one eviction pass.  Split out so tests can drive it without
// waiting on the ticker.
func (c *Cache) sweep(now time.Time) {
	nowNano := now.UnixNano()
	var count int

	// Idle pass.
	c.m.Range(func(key, value any) bool {
		count++
		ent := value.(*entry)
		idle := time.Duration(nowNano - atomic.LoadInt64(&ent.lastSeen))
		if idle > c.idleTTL {
			c.m.Delete(key)
			count--
			c.log.Infow("tenant evicted, idle",
				"host", key,
				"idle", idle.Truncate(time.Second))
			metrics.TenantEvictTotal.Inc()
			metrics.ActiveTenants.Dec()
		}
		return true
	})

	// LRU pass.
	if c.maxEntries <= 0 || count <= c.maxEntries {
		return
	}
	type kv struct {
		key string
		at  int64
	}
	var all []kv
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-c.maxEntries; i++ {
		if _, ok := c.m.LoadAndDelete(all[i].key); ok {
			c.log.Infow("tenant evicted, cache full", "host", all[i].key)
			metrics.TenantEvictTotal.Inc()
			metrics.ActiveTenants.Dec()
		}
	}
}
