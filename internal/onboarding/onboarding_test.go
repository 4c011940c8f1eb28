package onboarding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/rescue/rescuetest"
	"github.com/five82/pawswipe/internal/storage"
	"github.com/five82/pawswipe/internal/telemetry"
)

func newKV() *storage.Store {
	return storage.New(storage.NewMemory(), nil)
}

func TestShouldShow(t *testing.T) {
	tests := []struct {
		name      string
		record    string
		filters   string
		wantShown bool
	}{
		{name: "fresh install", wantShown: true},
		{name: "not completed", record: `{"completed":false}`, filters: `{"country":"DE"}`, wantShown: true},
		{name: "completed without filters", record: `{"completed":true}`, wantShown: true},
		{name: "completed with empty country", record: `{"completed":true}`, filters: `{"country":"","sizes":["small"]}`, wantShown: true},
		{name: "completed with country", record: `{"completed":true}`, filters: `{"country":"DE"}`, wantShown: false},
		{name: "completed with legacy country name", record: `{"completed":true}`, filters: `{"country":"Germany"}`, wantShown: false},
		{name: "malformed record", record: `{"completed":`, filters: `{"country":"DE"}`, wantShown: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := newKV()
			if tc.record != "" {
				kv.Set(storage.KeyOnboarding, []byte(tc.record))
			}
			if tc.filters != "" {
				kv.Set(storage.KeyFilters, []byte(tc.filters))
			}
			assert.Equal(t, tc.wantShown, ShouldShow(kv, nil))
		})
	}
}

func TestFlow_CompletePersistsRecordAndFilters(t *testing.T) {
	kv := newKV()
	sink := &eventLog{}
	flow := NewFlow(&rescuetest.Fake{}, kv, WithTelemetry(sink))
	require.True(t, ShouldShow(kv, nil))

	require.NoError(t, flow.SelectCountry("Germany"))
	assert.Equal(t, StepSize, flow.Step())

	fs, err := flow.Complete([]string{"small", "medium"})
	require.NoError(t, err)
	assert.Equal(t, "DE", fs.Country)
	assert.Equal(t, []string{"medium", "small"}, fs.Sizes)
	assert.Equal(t, StepDone, flow.Step())

	rec, ok := LoadRecord(kv)
	require.True(t, ok)
	assert.True(t, rec.Completed)
	assert.True(t, rec.Filters.Equal(fs))
	assert.True(t, filters.NewStore(kv, nil).Load().Equal(fs))
	assert.False(t, ShouldShow(kv, nil))
	assert.Equal(t, []string{telemetry.EventOnboardingCompleted}, sink.names)
}

func TestFlow_SkipCompletesWithoutSizes(t *testing.T) {
	kv := newKV()
	flow := NewFlow(&rescuetest.Fake{}, kv)
	require.NoError(t, flow.SelectCountry("RO"))
	flow.ToggleSize("large")

	fs, err := flow.Skip()
	require.NoError(t, err)
	assert.Empty(t, fs.Sizes)
	assert.False(t, ShouldShow(kv, nil))
}

func TestFlow_CompleteSelectedUsesToggles(t *testing.T) {
	flow := NewFlow(&rescuetest.Fake{}, newKV())
	require.NoError(t, flow.SelectCountry("GB"))
	flow.ToggleSize("large")
	flow.ToggleSize("small")
	flow.ToggleSize("large")

	fs, err := flow.CompleteSelected()
	require.NoError(t, err)
	assert.Equal(t, []string{"small"}, fs.Sizes)
}

func TestFlow_CountryIsRequired(t *testing.T) {
	kv := newKV()
	flow := NewFlow(&rescuetest.Fake{}, kv)

	assert.ErrorIs(t, flow.SelectCountry(""), ErrCountryRequired)
	assert.Error(t, flow.SelectCountry("Atlantis"))
	assert.Equal(t, StepCountry, flow.Step())

	_, err := flow.Complete(nil)
	assert.ErrorIs(t, err, ErrCountryRequired)
	_, ok := LoadRecord(kv)
	assert.False(t, ok)
}

func TestFlow_BackReturnsToCountryStep(t *testing.T) {
	flow := NewFlow(&rescuetest.Fake{}, newKV())
	require.NoError(t, flow.SelectCountry("DE"))
	flow.ToggleSize("small")

	flow.Back()
	assert.Equal(t, StepCountry, flow.Step())
	require.NoError(t, flow.SelectCountry("DE"))
	assert.True(t, flow.Selection().HasSize("small"))

	flow.Back()
	require.NoError(t, flow.SelectCountry("GB"))
	assert.False(t, flow.Selection().HasSize("small"))
}

func TestFlow_PreselectsPersistedFilters(t *testing.T) {
	kv := newKV()
	kv.Set(storage.KeyFilters, []byte(`{"country":"ES","sizes":["small"]}`))

	flow := NewFlow(&rescuetest.Fake{}, kv)
	assert.Equal(t, "ES", flow.Selection().Country)
	assert.Equal(t, StepCountry, flow.Step())
}

type countingCounter struct {
	inflight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	seen     []string
	failFor  map[string]bool
}

func (c *countingCounter) CountDogs(_ context.Context, q rescue.DogQuery) (int, error) {
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	c.mu.Lock()
	c.seen = append(c.seen, q.Country)
	c.mu.Unlock()
	if c.failFor[q.Country] || c.failFor["*"] {
		return 0, errors.New("unavailable")
	}
	return len(q.Country) * 10, nil
}

func (c *countingCounter) FetchFilterCounts(context.Context, string) (rescue.FilterCounts, error) {
	return rescue.FilterCounts{Sizes: map[string]int{"small": 4, "large": 1}}, nil
}

func TestFlow_CountryCountsAreFetchedConcurrentlyWithLimit(t *testing.T) {
	counter := &countingCounter{failFor: map[string]bool{"US": true}}
	flow := NewFlow(counter, newKV())

	options, err := flow.CountryCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, options, len(filters.Countries))
	assert.Len(t, counter.seen, len(filters.Countries))
	assert.LessOrEqual(t, counter.peak.Load(), int32(countFetchLimit))

	for _, opt := range options {
		if opt.Code == "US" {
			assert.Error(t, opt.Err)
			continue
		}
		assert.NoError(t, opt.Err)
		assert.Equal(t, 20, opt.Count)
	}
	assert.Equal(t, "DE", options[0].Code)
}

func TestFlow_CountryCountsAllFailing(t *testing.T) {
	counter := &countingCounter{failFor: map[string]bool{"*": true}}
	options, err := NewFlow(counter, newKV()).CountryCounts(context.Background())
	require.Error(t, err)
	assert.Len(t, options, len(filters.Countries))
}

func TestFlow_SizeCounts(t *testing.T) {
	flow := NewFlow(&countingCounter{}, newKV())
	_, err := flow.SizeCounts(context.Background())
	require.ErrorIs(t, err, ErrCountryRequired)

	require.NoError(t, flow.SelectCountry("DE"))
	options, err := flow.SizeCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, options, len(filters.Sizes))
	assert.Equal(t, SizeOption{Size: "small", Count: 4, Known: true}, options[0])
	assert.Equal(t, SizeOption{Size: "medium"}, options[1])
}

func TestReset(t *testing.T) {
	kv := newKV()
	flow := NewFlow(&rescuetest.Fake{}, kv)
	require.NoError(t, flow.SelectCountry("DE"))
	_, err := flow.Skip()
	require.NoError(t, err)

	Reset(kv)
	assert.True(t, ShouldShow(kv, nil))
}

type eventLog struct{ names []string }

func (e *eventLog) Event(name string, _ telemetry.Props) { e.names = append(e.names, name) }
func (e *eventLog) Exception(error, telemetry.Props)     {}
