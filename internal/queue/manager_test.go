package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/rescue/rescuetest"
	"github.com/five82/pawswipe/internal/storage"
)

var germany = filters.New("DE", nil, nil)

func newManager(t *testing.T, fake *rescuetest.Fake, opts ...Option) (*Manager, *storage.Store) {
	t.Helper()
	kv := storage.New(storage.NewMemory(), nil)
	opts = append([]Option{WithStore(kv)}, opts...)
	return NewManager(fake, LoadDecisions(kv), opts...), kv
}

func advanceN(t *testing.T, m *Manager, n int) {
	t.Helper()
	for range n {
		dog, ok := m.Current()
		require.True(t, ok)
		require.True(t, m.Advance(dog.ID))
	}
}

func TestLoad_EmptyBatchReportsEmpty(t *testing.T) {
	fake := &rescuetest.Fake{}
	m, _ := newManager(t, fake)

	require.NoError(t, m.Load(context.Background(), germany))

	snap := m.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.True(t, snap.Exhausted)
	assert.Zero(t, snap.Remaining())
	_, ok := snap.Current()
	assert.False(t, ok)
	assert.False(t, m.NeedsPrefetch())
}

func TestLoad_InvalidFiltersDoNotFetch(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 5)}
	m, _ := newManager(t, fake)

	require.NoError(t, m.Load(context.Background(), filters.FilterSet{}.ToggleSize("small")))

	assert.Equal(t, StateNeedsFilters, m.Snapshot().State)
	assert.Empty(t, fake.Queries())
}

func TestLoad_RequestsFirstBatchWithFilters(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 50)}
	m, _ := newManager(t, fake, WithBatchSize(20), WithRandomize(true))

	fs := germany.ToggleSize("medium")
	require.NoError(t, m.Load(context.Background(), fs))

	queries := fake.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, rescue.DogQuery{Country: "DE", Sizes: []string{"medium"}, Limit: 20, Randomize: true}, queries[0])

	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Len(t, snap.Items, 20)
	assert.False(t, snap.Exhausted)
	assert.True(t, snap.Filters.Equal(fs))
}

func TestLoad_FiltersDecidedAndDuplicateRecords(t *testing.T) {
	dogs := rescuetest.Dogs("d", "DE", 6)
	dogs = append(dogs, dogs[0], dogs[2])
	fake := &rescuetest.Fake{Dogs: dogs}
	m, _ := newManager(t, fake, WithBatchSize(10))
	m.Decisions().Add("d2")
	m.Decisions().Add("d5")

	require.NoError(t, m.Load(context.Background(), germany))

	var ids []rescue.DogID
	for _, dog := range m.Snapshot().Items {
		ids = append(ids, dog.ID)
	}
	assert.Equal(t, []rescue.DogID{"d1", "d3", "d4", "d6"}, ids)
}

func TestLoad_SkipsPagesThatWereFullyDecided(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 15)}
	m, _ := newManager(t, fake, WithBatchSize(5))
	for _, dog := range fake.Dogs[:5] {
		m.Decisions().Add(dog.ID)
	}

	require.NoError(t, m.Load(context.Background(), germany))

	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 5, snap.Offset)
	current, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("d6"), current.ID)
	assert.Len(t, fake.Queries(), 2)
}

func TestLoad_PagesPastLongDecidedPrefix(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 40)}
	m, _ := newManager(t, fake, WithBatchSize(5))
	for _, dog := range fake.Dogs[:25] {
		m.Decisions().Add(dog.ID)
	}

	require.NoError(t, m.Load(context.Background(), germany))

	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.False(t, snap.Exhausted)
	assert.Equal(t, 25, snap.Offset)
	current, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("d26"), current.ID)
	assert.Len(t, fake.Queries(), 6)
}

func TestLoad_EverythingDecidedReportsEmpty(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 40)}
	m, _ := newManager(t, fake, WithBatchSize(5))
	for _, dog := range fake.Dogs {
		m.Decisions().Add(dog.ID)
	}

	require.NoError(t, m.Load(context.Background(), germany))

	snap := m.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.True(t, snap.Exhausted)
	_, ok := snap.Current()
	assert.False(t, ok)
	assert.False(t, m.NeedsPrefetch())
	assert.Len(t, fake.Queries(), 9)
}

func TestPrefetch_WalksDecidedPagesWhenNothingResident(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 60)}
	m, _ := newManager(t, fake, WithBatchSize(5), WithLowWaterMark(1))
	require.NoError(t, m.Load(context.Background(), germany))
	for _, dog := range fake.Dogs[5:35] {
		m.Decisions().Add(dog.ID)
	}

	advanceN(t, m, 5)
	require.True(t, m.NeedsPrefetch())
	require.NoError(t, m.Prefetch(context.Background()))

	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	current, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("d36"), current.ID)
	assert.Equal(t, 35, snap.Offset)
	assert.Len(t, fake.Queries(), 8)
}

func TestRetry_RunsDuePrefetchAfterSkippedPages(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 60)}
	m, _ := newManager(t, fake, WithBatchSize(5), WithLowWaterMark(2))
	require.NoError(t, m.Load(context.Background(), germany))
	for _, dog := range fake.Dogs[5:35] {
		m.Decisions().Add(dog.ID)
	}

	advanceN(t, m, 3)
	require.NoError(t, m.Prefetch(context.Background()))
	// Dogs are still resident, so the walk stops after a few pages.
	assert.Len(t, fake.Queries(), 1+maxSkippedPages)
	assert.Equal(t, 2, m.Remaining())
	require.True(t, m.NeedsPrefetch())

	advanceN(t, m, 2)
	require.NoError(t, m.Snapshot().LastError)
	require.NoError(t, m.Retry(context.Background()))

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("d36"), current.ID)
	assert.Equal(t, StateReady, m.Snapshot().State)
}

func TestPrefetch_LowWaterTriggersExactlyOneFetch(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 100)}
	m, _ := newManager(t, fake, WithBatchSize(30), WithLowWaterMark(5))
	require.NoError(t, m.Load(context.Background(), germany))
	require.Len(t, m.Snapshot().Items, 30)

	advanceN(t, m, 24)
	assert.Equal(t, 6, m.Remaining())
	assert.False(t, m.NeedsPrefetch())

	advanceN(t, m, 1)
	assert.Equal(t, 5, m.Remaining())
	require.True(t, m.NeedsPrefetch())

	gate := make(chan struct{})
	fake.SetGate(gate)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, m.Prefetch(context.Background()))
	}()
	require.Eventually(t, func() bool { return len(fake.Queries()) == 2 }, time.Second, time.Millisecond)

	assert.False(t, m.NeedsPrefetch())
	assert.NoError(t, m.Prefetch(context.Background()))
	close(gate)
	wg.Wait()

	queries := fake.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, 30, queries[1].Offset)
	assert.Equal(t, 35, m.Remaining())
	assert.Equal(t, 30, m.Snapshot().Offset)
}

func TestPrefetch_MarksExhaustedFromTotal(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 40), ReportTotal: true}
	m, _ := newManager(t, fake, WithBatchSize(20))
	require.NoError(t, m.Load(context.Background(), germany))
	assert.False(t, m.Snapshot().Exhausted)

	require.NoError(t, m.Prefetch(context.Background()))
	assert.True(t, m.Snapshot().Exhausted)

	require.NoError(t, m.Prefetch(context.Background()))
	assert.Len(t, fake.Queries(), 2)
}

func TestPrefetch_DedupsAgainstDecisionsAtMergeTime(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 20)}
	m, _ := newManager(t, fake, WithBatchSize(10))
	require.NoError(t, m.Load(context.Background(), germany))

	m.Decisions().Add("d12")
	m.Decisions().Add("d15")
	require.NoError(t, m.Prefetch(context.Background()))

	for _, dog := range m.Snapshot().Items {
		assert.NotEqual(t, rescue.DogID("d12"), dog.ID)
		assert.NotEqual(t, rescue.DogID("d15"), dog.ID)
	}
	assert.Len(t, m.Snapshot().Items, 18)
}

func TestPrefetch_TrimsOldestDecidedRecords(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 40)}
	m, _ := newManager(t, fake, WithBatchSize(10), WithLowWaterMark(2), WithMaxSize(12))
	require.NoError(t, m.Load(context.Background(), germany))

	advanceN(t, m, 8)
	require.True(t, m.NeedsPrefetch())
	require.NoError(t, m.Prefetch(context.Background()))

	snap := m.Snapshot()
	assert.Len(t, snap.Items, 12)
	assert.Equal(t, 0, snap.Index)
	current, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("d9"), current.ID)

	_, _, resident := m.Window("d1", 2)
	assert.False(t, resident)
}

func TestPrefetch_FailureKeepsQueueAndGoesOffline(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 30)}
	m, _ := newManager(t, fake, WithBatchSize(10))
	require.NoError(t, m.Load(context.Background(), germany))
	advanceN(t, m, 3)
	before := m.Snapshot()

	boom := errors.New("boom")
	fake.SetListErr(boom)
	err := m.Prefetch(context.Background())
	require.ErrorIs(t, err, boom)

	snap := m.Snapshot()
	assert.Equal(t, before.Items, snap.Items)
	assert.Equal(t, before.Index, snap.Index)
	assert.Equal(t, StateReady, snap.State)
	assert.ErrorIs(t, snap.LastError, boom)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.False(t, snap.IsOffline())

	require.Error(t, m.Retry(context.Background()))
	assert.True(t, m.Snapshot().IsOffline())

	fake.SetListErr(nil)
	require.NoError(t, m.Retry(context.Background()))
	snap = m.Snapshot()
	assert.NoError(t, snap.LastError)
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.Len(t, snap.Items, 20)
}

func TestLoad_FailureSetsErrorStateAndRetryReloads(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 5), ListErr: errors.New("offline")}
	m, _ := newManager(t, fake)

	require.Error(t, m.Load(context.Background(), germany))
	assert.Equal(t, StateError, m.Snapshot().State)

	fake.SetListErr(nil)
	require.NoError(t, m.Retry(context.Background()))
	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Len(t, snap.Items, 5)
	assert.Equal(t, 0, fake.Queries()[1].Offset)
}

func TestLoad_StaleResultIsDiscarded(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: append(rescuetest.Dogs("de", "DE", 3), rescuetest.Dogs("gb", "GB", 3)...)}
	m, _ := newManager(t, fake)

	gate := make(chan struct{})
	fake.SetGate(gate)
	errc := make(chan error, 1)
	go func() { errc <- m.Load(context.Background(), germany) }()
	require.Eventually(t, func() bool { return len(fake.Queries()) == 1 }, time.Second, time.Millisecond)

	fake.SetGate(nil)
	require.NoError(t, m.Load(context.Background(), filters.New("GB", nil, nil)))
	close(gate)
	require.ErrorIs(t, <-errc, ErrSuperseded)

	snap := m.Snapshot()
	assert.Equal(t, "GB", snap.Filters.Country)
	current, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, rescue.DogID("gb1"), current.ID)
}

func TestAdvance_IgnoresReplayedGesture(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 3)}
	m, _ := newManager(t, fake)
	require.NoError(t, m.Load(context.Background(), germany))

	assert.True(t, m.Advance("d1"))
	assert.False(t, m.Advance("d1"))
	assert.False(t, m.Advance("d3"))
	assert.Equal(t, 1, m.Snapshot().Index)

	assert.True(t, m.Advance("d2"))
	assert.True(t, m.Advance("d3"))
	assert.Equal(t, StateEmpty, m.Snapshot().State)
}

func TestWindow(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 6)}
	m, _ := newManager(t, fake)
	require.NoError(t, m.Load(context.Background(), germany))

	dogs, center, ok := m.Window("d1", 2)
	require.True(t, ok)
	assert.Equal(t, 0, center)
	assert.Len(t, dogs, 3)

	dogs, center, ok = m.Window("d4", 2)
	require.True(t, ok)
	assert.Equal(t, 2, center)
	assert.Equal(t, rescue.DogID("d2"), dogs[0].ID)
	assert.Equal(t, rescue.DogID("d6"), dogs[4].ID)

	_, _, ok = m.Window("missing", 2)
	assert.False(t, ok)
}

func TestSnapshot_IsACopy(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 2)}
	m, _ := newManager(t, fake)
	require.NoError(t, m.Load(context.Background(), germany))

	snap := m.Snapshot()
	snap.Items[0].Name = "changed"
	assert.Equal(t, "Dog d1", m.Snapshot().Items[0].Name)
}

func TestCursorIsPersisted(t *testing.T) {
	fake := &rescuetest.Fake{Dogs: rescuetest.Dogs("d", "DE", 4)}
	m, kv := newManager(t, fake)
	require.NoError(t, m.Load(context.Background(), germany))
	require.True(t, m.Advance("d1"))

	cursor, ok := LoadCursor(kv)
	require.True(t, ok)
	assert.Equal(t, Cursor{Query: "country=DE", Offset: 0, Index: 1}, cursor)
}
