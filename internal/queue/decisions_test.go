package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/storage"
)

func TestDecisions_AddIsIdempotent(t *testing.T) {
	kv := storage.New(storage.NewMemory(), nil)
	d := LoadDecisions(kv)

	assert.True(t, d.Add("7"))
	assert.False(t, d.Add("7"))
	assert.False(t, d.Add(""))
	assert.Equal(t, 1, d.Len())

	raw, ok := kv.Get(storage.KeyDecisions)
	require.True(t, ok)
	assert.JSONEq(t, `["7"]`, string(raw))
}

func TestDecisions_ConcurrentAddsPersistEverySet(t *testing.T) {
	kv := storage.New(storage.NewMemory(), nil)
	d := LoadDecisions(kv)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Add(rescue.DogID(fmt.Sprintf("dog-%d", i)))
		}()
	}
	wg.Wait()

	reloaded := LoadDecisions(kv)
	assert.Equal(t, 50, reloaded.Len())
	assert.Equal(t, d.IDs(), reloaded.IDs())
}

func TestDecisions_LoadsPersistedSet(t *testing.T) {
	kv := storage.New(storage.NewMemory(), nil)
	kv.Set(storage.KeyDecisions, []byte(`["1", 2, "1", ""]`))

	d := LoadDecisions(kv)
	assert.Equal(t, []rescue.DogID{"1", "2"}, d.IDs())
	assert.True(t, d.Has("2"))
	assert.False(t, d.Has("3"))
}

func TestDecisions_MalformedIsEmpty(t *testing.T) {
	kv := storage.New(storage.NewMemory(), nil)
	kv.Set(storage.KeyDecisions, []byte(`{"not":"a list"}`))

	assert.Zero(t, LoadDecisions(kv).Len())
}

func TestDecisions_Reset(t *testing.T) {
	kv := storage.New(storage.NewMemory(), nil)
	d := LoadDecisions(kv)
	d.Add("1")
	d.Reset()

	assert.Zero(t, d.Len())
	_, ok := kv.Get(storage.KeyDecisions)
	assert.False(t, ok)
	assert.Zero(t, LoadDecisions(kv).Len())
}

func TestDecisions_SurviveStorageFailure(t *testing.T) {
	kv := storage.New(brokenBackend{}, nil)
	d := LoadDecisions(kv)

	assert.True(t, d.Add("1"))
	assert.True(t, d.Has("1"))
}

type brokenBackend struct{}

func (brokenBackend) Get(string) ([]byte, error)  { return nil, storage.ErrClosed }
func (brokenBackend) Put(map[string][]byte) error { return storage.ErrClosed }
func (brokenBackend) Delete(...string) error      { return storage.ErrClosed }
func (brokenBackend) Close() error                { return nil }
