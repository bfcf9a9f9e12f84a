package cache

import "sync"

// counters tracks hit/miss totals across the cache lifetime. Counters only
// grow; sizes are computed at snapshot time from the live store.
type counters struct {
	mu        sync.Mutex
	tier1Hits int64
	tier2Hits int64
	tier3Hits int64
	misses    int64
}

func (c *counters) hit(tier int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch tier {
	case 1:
		c.tier1Hits++
	case 2:
		c.tier2Hits++
	case 3:
		c.tier3Hits++
	}
}

func (c *counters) miss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
}

func (c *counters) snapshot() (tier1, tier2, tier3, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tier1Hits, c.tier2Hits, c.tier3Hits, c.misses
}
