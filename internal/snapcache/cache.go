package snapcache

import (
	"sync"
	"time"

	"github.com/marocz/ece-exporter/internal/metrics"
)

// Resource identifies which upstream fetch produced a cached family set.
// The two resources fail and expire independently.
type Resource string

const (
	ResourceAllocators Resource = "allocators"
	ResourceProxies    Resource = "proxies"
)

// Entry is a cached MetricSet together with its provenance.
type Entry struct {
	Set       metrics.MetricSet
	Age       time.Duration
	Seq       uint64
	FetchedAt time.Time
}

type entry struct {
	set       metrics.MetricSet
	fetchedAt time.Time
	seq       uint64
}

// Cache is a thread-safe latest-value store for normalized metric families.
// Stored sets are never mutated, only replaced.
type Cache struct {
	mu         sync.RWMutex
	entries    map[Resource]entry
	staleAfter time.Duration
	now        func() time.Time // injectable for deterministic tests
}

// New creates a Cache with the given staleness ceiling.
func New(staleAfter time.Duration) *Cache {
	return &Cache{
		entries:    make(map[Resource]entry),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Update replaces the stored set for r. The update is applied only when seq
// is greater than the stored sequence number, so a slow cycle finishing late
// cannot overwrite data from a newer cycle. It reports whether the update
// was applied.
func (c *Cache) Update(r Resource, set metrics.MetricSet, fetchedAt time.Time, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[r]; ok && prev.seq >= seq {
		return false
	}
	c.entries[r] = entry{set: set, fetchedAt: fetchedAt, seq: seq}
	return true
}

// Get returns the latest stored entry for r regardless of age.
func (c *Cache) Get(r Resource) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[r]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Set:       e.set,
		Age:       c.now().Sub(e.fetchedAt),
		Seq:       e.seq,
		FetchedAt: e.fetchedAt,
	}, true
}

// Fresh returns the stored set for r only while its age is within the
// staleness ceiling. Age exactly equal to the ceiling still counts as fresh;
// anything beyond it is withheld.
func (c *Cache) Fresh(r Resource) (metrics.MetricSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[r]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) > c.staleAfter {
		return nil, false
	}
	return e.set, true
}

// SetStaleAfter updates the staleness ceiling. Used by config hot reload.
func (c *Cache) SetStaleAfter(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staleAfter = d
}

// StaleAfter returns the current staleness ceiling.
func (c *Cache) StaleAfter() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staleAfter
}
