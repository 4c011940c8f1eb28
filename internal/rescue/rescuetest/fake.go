// Package rescuetest provides an in-memory rescue API for tests.
package rescuetest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/five82/pawswipe/internal/rescue"
)

var _ rescue.API = (*Fake)(nil)

// Fake serves pages out of Dogs. Set the error fields to make calls fail and
// Gate to hold ListDogs until a value is received or the context ends.
type Fake struct {
	mu sync.Mutex

	Dogs        []rescue.Dog
	ReportTotal bool
	ListErr     error
	CountErr    error
	FavoriteErr error
	Gate        chan struct{}

	queries   []rescue.DogQuery
	counts    []rescue.DogQuery
	favorites []rescue.DogID
}

// Dogs builds n dogs with ids prefix1..prefixN in country.
func Dogs(prefix, country string, n int) []rescue.Dog {
	out := make([]rescue.Dog, n)
	for i := range out {
		out[i] = rescue.Dog{
			ID:       rescue.DogID(fmt.Sprintf("%s%d", prefix, i+1)),
			Name:     fmt.Sprintf("Dog %s%d", prefix, i+1),
			Country:  country,
			Size:     "medium",
			ImageURL: fmt.Sprintf("/img/%s%d.jpg", prefix, i+1),
		}
	}
	return out
}

// SetListErr changes ListErr under the lock.
func (f *Fake) SetListErr(err error) {
	f.mu.Lock()
	f.ListErr = err
	f.mu.Unlock()
}

// SetGate changes Gate under the lock.
func (f *Fake) SetGate(gate chan struct{}) {
	f.mu.Lock()
	f.Gate = gate
	f.mu.Unlock()
}

func (f *Fake) ListDogs(ctx context.Context, q rescue.DogQuery) (rescue.DogPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return rescue.DogPage{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return rescue.DogPage{}, f.ListErr
	}
	matched := f.matchLocked(q)
	start := min(q.Offset, len(matched))
	end := len(matched)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(matched))
	}
	page := rescue.DogPage{Dogs: slices.Clone(matched[start:end])}
	if f.ReportTotal {
		total := len(matched)
		page.Total = &total
	}
	return page, nil
}

func (f *Fake) CountDogs(_ context.Context, q rescue.DogQuery) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, q)
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	return len(f.matchLocked(q)), nil
}

func (f *Fake) FetchFilterCounts(_ context.Context, country string) (rescue.FilterCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CountErr != nil {
		return rescue.FilterCounts{}, f.CountErr
	}
	counts := rescue.FilterCounts{Sizes: map[string]int{}, Ages: map[string]int{}}
	for _, dog := range f.matchLocked(rescue.DogQuery{Country: country}) {
		if dog.Size != "" {
			counts.Sizes[dog.Size]++
		}
		if dog.Age != "" {
			counts.Ages[dog.Age]++
		}
	}
	return counts, nil
}

func (f *Fake) AddFavorite(_ context.Context, id rescue.DogID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites = append(f.favorites, id)
	return f.FavoriteErr
}

// Queries returns every ListDogs request seen so far.
func (f *Fake) Queries() []rescue.DogQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

// CountQueries returns every CountDogs request seen so far.
func (f *Fake) CountQueries() []rescue.DogQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.counts)
}

// Favorites returns the ids passed to AddFavorite.
func (f *Fake) Favorites() []rescue.DogID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.favorites)
}

func (f *Fake) matchLocked(q rescue.DogQuery) []rescue.Dog {
	var out []rescue.Dog
	for _, dog := range f.Dogs {
		if q.Country != "" && dog.Country != "" && dog.Country != q.Country {
			continue
		}
		if len(q.Sizes) > 0 && !slices.Contains(q.Sizes, dog.Size) {
			continue
		}
		if len(q.Ages) > 0 && !slices.Contains(q.Ages, dog.Age) {
			continue
		}
		out = append(out, dog)
	}
	return out
}
