package navcache

import (
	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/rescue"
)

// DefaultRadius is how many dogs on each side a window holds.
const DefaultRadius = 2

// Source builds windows. queue.Manager implements it.
type Source interface {
	Window(id rescue.DogID, radius int) ([]rescue.Dog, int, bool)
}

// Navigator moves through the queue one dog at a time for the detail view,
// building each position's window through the cache.
type Navigator struct {
	cache   *Cache
	source  Source
	radius  int
	filters filters.FilterSet
	window  Window
	hits    int
	misses  int
}

// NewNavigator returns a Navigator. A non-positive radius uses
// DefaultRadius.
func NewNavigator(cache *Cache, source Source, radius int) *Navigator {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Navigator{cache: cache, source: source, radius: radius}
}

// Open centers the navigator on id under fs.
func (n *Navigator) Open(id rescue.DogID, fs filters.FilterSet) (rescue.Dog, bool) {
	key := Key(id, fs)
	w, ok := n.cache.Get(key)
	if ok {
		n.hits++
	} else {
		dogs, center, found := n.source.Window(id, n.radius)
		if !found {
			return rescue.Dog{}, false
		}
		n.misses++
		w = Window{Dogs: dogs, Center: center}
		n.cache.Set(key, w)
	}
	n.filters = fs
	n.window = w
	return w.Current()
}

// Current returns the dog the navigator is on.
func (n *Navigator) Current() (rescue.Dog, bool) {
	return n.window.Current()
}

// Window returns the current window.
func (n *Navigator) Window() Window {
	return n.window
}

// HasPrev reports whether a dog precedes the current one.
func (n *Navigator) HasPrev() bool {
	return n.window.Center > 0 && n.window.Center < len(n.window.Dogs)
}

// HasNext reports whether a dog follows the current one.
func (n *Navigator) HasNext() bool {
	return n.window.Center >= 0 && n.window.Center+1 < len(n.window.Dogs)
}

// Prev moves one dog back.
func (n *Navigator) Prev() (rescue.Dog, bool) {
	if !n.HasPrev() {
		return rescue.Dog{}, false
	}
	return n.step(n.window.Dogs[n.window.Center-1])
}

// Next moves one dog forward.
func (n *Navigator) Next() (rescue.Dog, bool) {
	if !n.HasNext() {
		return rescue.Dog{}, false
	}
	return n.step(n.window.Dogs[n.window.Center+1])
}

// Stats returns cache hits and misses since the navigator was created.
func (n *Navigator) Stats() (hits, misses int) {
	return n.hits, n.misses
}

func (n *Navigator) step(target rescue.Dog) (rescue.Dog, bool) {
	prev := n.window
	if dog, ok := n.Open(target.ID, n.filters); ok {
		return dog, true
	}
	// The target left the queue; keep showing it from the old window.
	for i, dog := range prev.Dogs {
		if dog.ID == target.ID {
			n.window = Window{Dogs: prev.Dogs, Center: i}
			return dog, true
		}
	}
	return rescue.Dog{}, false
}
