// Package navcache caches neighborhoods of the swipe queue for the detail
// view so that stepping left and right does not rebuild them.
package navcache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/rescue"
)

// DefaultCapacity is the number of windows kept.
const DefaultCapacity = 10

// Window is a run of adjacent dogs centered on one of them.
type Window struct {
	Dogs   []rescue.Dog
	Center int
}

// Current returns the dog at Center.
func (w Window) Current() (rescue.Dog, bool) {
	if w.Center < 0 || w.Center >= len(w.Dogs) {
		return rescue.Dog{}, false
	}
	return w.Dogs[w.Center], true
}

// Key identifies the window around dogID under fs. Filters are folded in
// through their canonical query string so equal sets share entries.
func Key(dogID rescue.DogID, fs filters.FilterSet) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(dogID))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(fs.QueryString())
	return d.Sum64()
}

// Cache is a fixed-capacity LRU of windows. Get promotes an entry, Has does
// not, and Set evicts exactly the least recently used entry when a new key
// arrives at capacity.
type Cache struct {
	entries *lru.Cache[uint64, Window]
}

// New returns a cache holding at most capacity windows.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("navcache capacity must be positive, got %d", capacity)
	}
	entries, err := lru.New[uint64, Window](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the window for key and marks it most recently used.
func (c *Cache) Get(key uint64) (Window, bool) {
	return c.entries.Get(key)
}

// Set stores w under key and reports whether an entry was evicted.
func (c *Cache) Set(key uint64, w Window) bool {
	return c.entries.Add(key, w)
}

// Has reports whether key is cached without touching recency.
func (c *Cache) Has(key uint64) bool {
	return c.entries.Contains(key)
}

// Len returns the number of cached windows.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}
