package navcache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/rescue"
)

type sliceSource struct {
	dogs  []rescue.Dog
	calls int
}

func newSource(n int) *sliceSource {
	s := &sliceSource{}
	for i := range n {
		s.dogs = append(s.dogs, rescue.Dog{ID: rescue.DogID(fmt.Sprint(i + 1))})
	}
	return s
}

func (s *sliceSource) Window(id rescue.DogID, radius int) ([]rescue.Dog, int, bool) {
	s.calls++
	for i, dog := range s.dogs {
		if dog.ID == id {
			start := max(0, i-radius)
			end := min(len(s.dogs), i+radius+1)
			return append([]rescue.Dog(nil), s.dogs[start:end]...), i - start, true
		}
	}
	return nil, 0, false
}

func TestNavigator_StepsAndReusesCachedWindows(t *testing.T) {
	cache, err := New(DefaultCapacity)
	require.NoError(t, err)
	src := newSource(6)
	nav := NewNavigator(cache, src, 0)
	fs := filters.New("DE", nil, nil)

	dog, ok := nav.Open("3", fs)
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("3"), dog.ID)
	assert.Len(t, nav.Window().Dogs, 5)

	dog, ok = nav.Next()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("4"), dog.ID)

	dog, ok = nav.Prev()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("3"), dog.ID)

	hits, misses := nav.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
	assert.Equal(t, 2, src.calls)
}

func TestNavigator_Bounds(t *testing.T) {
	cache, err := New(DefaultCapacity)
	require.NoError(t, err)
	nav := NewNavigator(cache, newSource(2), 2)
	fs := filters.New("DE", nil, nil)

	_, ok := nav.Open("1", fs)
	require.True(t, ok)
	assert.False(t, nav.HasPrev())
	_, ok = nav.Prev()
	assert.False(t, ok)

	_, ok = nav.Next()
	require.True(t, ok)
	assert.False(t, nav.HasNext())
	_, ok = nav.Next()
	assert.False(t, ok)
	current, _ := nav.Current()
	assert.Equal(t, rescue.DogID("2"), current.ID)
}

func TestNavigator_UnknownDog(t *testing.T) {
	cache, err := New(DefaultCapacity)
	require.NoError(t, err)
	nav := NewNavigator(cache, newSource(2), 2)

	_, ok := nav.Open("missing", filters.New("DE", nil, nil))
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestNavigator_FallsBackWhenNeighborLeftQueue(t *testing.T) {
	cache, err := New(DefaultCapacity)
	require.NoError(t, err)
	src := newSource(5)
	nav := NewNavigator(cache, src, 2)
	fs := filters.New("DE", nil, nil)

	_, ok := nav.Open("3", fs)
	require.True(t, ok)
	src.dogs = src.dogs[2:]

	dog, ok := nav.Prev()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("2"), dog.ID)
}
