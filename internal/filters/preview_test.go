package filters

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/pawswipe/internal/rescue"
)

type fakeCounter struct {
	mu      sync.Mutex
	queries []rescue.DogQuery
	block   chan struct{}
	err     error
}

func (f *fakeCounter) CountDogs(ctx context.Context, q rescue.DogQuery) (int, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	return 10 + len(q.Sizes), nil
}

func (f *fakeCounter) FetchFilterCounts(context.Context, string) (rescue.FilterCounts, error) {
	return rescue.FilterCounts{}, nil
}

func (f *fakeCounter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func waitPreview(t *testing.T, p *Previewer) Preview {
	t.Helper()
	select {
	case r := <-p.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for preview")
		return Preview{}
	}
}

func TestPreviewer_CoalescesRapidRequests(t *testing.T) {
	defer goleak.VerifyNone(t)
	counter := &fakeCounter{}
	p := NewPreviewer(counter, 20*time.Millisecond)
	defer p.Stop()

	fs := New("DE", nil, nil)
	p.Request(fs)
	p.Request(fs.ToggleSize("small"))
	last := fs.ToggleSize("small").ToggleSize("large")
	p.Request(last)

	r := waitPreview(t, p)
	require.NoError(t, r.Err)
	assert.Equal(t, 12, r.Count)
	assert.True(t, r.Filters.Equal(last))
	assert.True(t, p.IsCurrent(r))
	assert.Equal(t, 1, counter.calls())
}

func TestPreviewer_SupersededFetchIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)
	counter := &fakeCounter{block: make(chan struct{})}
	p := NewPreviewer(counter, time.Millisecond)
	defer p.Stop()

	p.Request(New("DE", nil, nil))
	require.Eventually(t, func() bool { return counter.calls() == 1 }, time.Second, time.Millisecond)

	counter.mu.Lock()
	counter.block = nil
	counter.mu.Unlock()
	p.Request(New("GB", []string{"small"}, nil))

	r := waitPreview(t, p)
	assert.Equal(t, "GB", r.Filters.Country)
	assert.Equal(t, 11, r.Count)

	select {
	case stale := <-p.Results():
		t.Fatalf("unexpected stale preview for %s", stale.Filters)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestPreviewer_InvalidFiltersAreNotCounted(t *testing.T) {
	defer goleak.VerifyNone(t)
	counter := &fakeCounter{}
	p := NewPreviewer(counter, time.Millisecond)

	p.Request(FilterSet{}.ToggleSize("small"))
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	assert.Zero(t, counter.calls())
}

func TestPreviewer_ReportsErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	counter := &fakeCounter{err: errors.New("down")}
	p := NewPreviewer(counter, time.Millisecond)
	defer p.Stop()

	p.Request(New("DE", nil, nil))
	r := waitPreview(t, p)
	assert.EqualError(t, r.Err, "down")
}

func TestPreviewer_StopCancelsInflight(t *testing.T) {
	defer goleak.VerifyNone(t)
	counter := &fakeCounter{block: make(chan struct{})}
	p := NewPreviewer(counter, time.Millisecond)

	p.Request(New("DE", nil, nil))
	require.Eventually(t, func() bool { return counter.calls() == 1 }, time.Second, time.Millisecond)
	p.Stop()
	p.Request(New("GB", nil, nil))
	p.Stop()
	assert.Equal(t, 1, counter.calls())
}
