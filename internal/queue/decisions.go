package queue

import (
	"sync"

	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/storage"
)

// Decisions is the persisted set of dog ids the user already swiped on. It
// only grows until Reset.
type Decisions struct {
	kv *storage.Store

	// persist orders writes so the stored set is never older than the
	// last one written.
	persist sync.Mutex

	mu    sync.RWMutex
	ids   map[rescue.DogID]struct{}
	order []rescue.DogID
}

// LoadDecisions reads the set stored under swipeDecisions. Missing or
// malformed data yields an empty set.
func LoadDecisions(kv *storage.Store) *Decisions {
	if kv == nil {
		kv = storage.New(nil, nil)
	}
	d := &Decisions{kv: kv, ids: make(map[rescue.DogID]struct{})}

	var stored []rescue.DogID
	if kv.GetJSON(storage.KeyDecisions, &stored) {
		for _, id := range stored {
			if id == "" {
				continue
			}
			if _, dup := d.ids[id]; dup {
				continue
			}
			d.ids[id] = struct{}{}
			d.order = append(d.order, id)
		}
	}
	return d
}

// Add records id and persists the set. It reports false when id was already
// present, in which case nothing is written.
func (d *Decisions) Add(id rescue.DogID) bool {
	if id == "" {
		return false
	}
	d.persist.Lock()
	defer d.persist.Unlock()

	d.mu.Lock()
	if _, ok := d.ids[id]; ok {
		d.mu.Unlock()
		return false
	}
	d.ids[id] = struct{}{}
	d.order = append(d.order, id)
	snapshot := append([]rescue.DogID(nil), d.order...)
	d.mu.Unlock()

	d.kv.SetJSON(storage.KeyDecisions, snapshot)
	return true
}

// Has reports whether id was decided.
func (d *Decisions) Has(id rescue.DogID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.ids[id]
	return ok
}

// Len returns the number of decided ids.
func (d *Decisions) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.ids)
}

// IDs returns the decided ids in decision order.
func (d *Decisions) IDs() []rescue.DogID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]rescue.DogID(nil), d.order...)
}

// Reset forgets every decision, in memory and on disk.
func (d *Decisions) Reset() {
	d.persist.Lock()
	defer d.persist.Unlock()

	d.mu.Lock()
	d.ids = make(map[rescue.DogID]struct{})
	d.order = nil
	d.mu.Unlock()
	d.kv.Remove(storage.KeyDecisions)
}
