package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/storage"
	"github.com/five82/pawswipe/internal/telemetry"
)

// ErrSuperseded is returned when a fetch finished after a newer Load
// replaced its generation. Its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer load")

// Defaults for the queue sizing options.
const (
	DefaultBatchSize    = 20
	DefaultLowWaterMark = 5
	DefaultMaxSize      = 100
)

// maxSkippedPages bounds how many fully decided pages a prefetch walks
// through while undecided dogs are still resident. With nothing resident,
// Load and Prefetch page on until they admit a dog or reach the end.
const maxSkippedPages = 5

// Option customizes a Manager.
type Option func(*Manager)

// WithBatchSize sets how many records each fetch requests.
func WithBatchSize(n int) Option {
	return func(m *Manager) { m.batch = n }
}

// WithLowWaterMark sets the remaining-item threshold that triggers prefetch.
func WithLowWaterMark(n int) Option {
	return func(m *Manager) { m.lowWater = n }
}

// WithMaxSize bounds the number of resident records.
func WithMaxSize(n int) Option {
	return func(m *Manager) { m.maxSize = n }
}

// WithRandomize asks the backend for a shuffled ordering.
func WithRandomize(on bool) Option {
	return func(m *Manager) { m.randomize = on }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.log = logging.OrNop(logger).Named("queue") }
}

// WithTelemetry sets the event sink.
func WithTelemetry(sink telemetry.Sink) Option {
	return func(m *Manager) { m.sink = telemetry.OrNop(sink) }
}

// WithStore persists the queue cursor to kv.
func WithStore(kv *storage.Store) Option {
	return func(m *Manager) { m.kv = kv }
}

// Manager owns the swipe queue: it loads the first batch for a FilterSet,
// prefetches more when the user runs low, and hides dogs that were already
// decided. All methods are safe for concurrent use; network calls run
// without holding the lock and their results are dropped when a newer Load
// has started in the meantime.
type Manager struct {
	fetcher   rescue.DogLister
	decisions *Decisions
	kv        *storage.Store
	log       *zap.Logger
	sink      telemetry.Sink

	batch     int
	lowWater  int
	maxSize   int
	randomize bool

	mu          sync.RWMutex
	filters     filters.FilterSet
	items       []rescue.Dog
	index       int
	seen        map[rescue.DogID]struct{}
	offset      int
	exhausted   bool
	loaded      bool
	prefetching bool
	generation  uint64
	state       State
	lastErr     error
	failures    int
	updated     time.Time
}

// NewManager returns a Manager fetching from fetcher and filtering against
// decisions.
func NewManager(fetcher rescue.DogLister, decisions *Decisions, opts ...Option) *Manager {
	m := &Manager{
		fetcher:   fetcher,
		decisions: decisions,
		log:       zap.NewNop(),
		sink:      telemetry.Nop{},
		batch:     DefaultBatchSize,
		lowWater:  DefaultLowWaterMark,
		maxSize:   DefaultMaxSize,
		seen:      make(map[rescue.DogID]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.decisions == nil {
		m.decisions = LoadDecisions(m.kv)
	}
	if m.batch <= 0 {
		m.batch = DefaultBatchSize
	}
	if m.lowWater < 0 {
		m.lowWater = 0
	}
	// Undecided records never exceed lowWater+batch, so trimming only ever
	// drops decided ones.
	if m.maxSize < m.batch+m.lowWater {
		m.maxSize = m.batch + m.lowWater
	}
	return m
}

// Decisions returns the decided-id set the manager filters against.
func (m *Manager) Decisions() *Decisions {
	return m.decisions
}

// Filters returns the FilterSet of the current generation.
func (m *Manager) Filters() filters.FilterSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filters
}

// Load replaces the queue with the first batch for fs. An invalid fs moves
// the queue to StateNeedsFilters without fetching. A failed fetch records
// the error and leaves the resident records alone.
func (m *Manager) Load(ctx context.Context, fs filters.FilterSet) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.filters = fs
	m.prefetching = false
	m.loaded = false
	if !fs.IsValid() {
		m.state = StateNeedsFilters
		m.mu.Unlock()
		return nil
	}
	m.state = StateLoading
	m.mu.Unlock()

	offset := 0
	for {
		page, err := m.fetcher.ListDogs(ctx, fs.Query(m.batch, offset, m.randomize))

		m.mu.Lock()
		if gen != m.generation {
			m.mu.Unlock()
			return ErrSuperseded
		}
		if err != nil {
			m.failLocked(err)
			m.state = StateError
			m.mu.Unlock()
			m.reportFailure("load", fs, err)
			return fmt.Errorf("load queue: %w", err)
		}

		seen := make(map[rescue.DogID]struct{}, len(page.Dogs))
		items := m.admitLocked(nil, seen, page.Dogs)
		exhausted := m.isLastPage(page, offset)
		if len(items) == 0 && !exhausted {
			m.mu.Unlock()
			offset += m.batch
			continue
		}

		m.items = items
		m.seen = seen
		m.index = 0
		m.offset = offset
		m.exhausted = exhausted
		m.loaded = true
		m.succeedLocked()
		if len(items) == 0 && exhausted {
			m.state = StateEmpty
		} else {
			m.state = StateReady
		}
		state := m.state
		cursor := m.cursorLocked()
		m.mu.Unlock()

		m.saveCursor(cursor)
		m.log.Info("queue loaded",
			zap.Stringer("filters", fs),
			zap.Int("count", len(items)),
			zap.Int("offset", offset),
			zap.Stringer("state", state))
		m.sink.Event(telemetry.EventQueueLoaded, telemetry.Props{
			"count":   strconv.Itoa(len(items)),
			"country": fs.Country,
		})
		return nil
	}
}

// Reload loads the current filters again from offset 0.
func (m *Manager) Reload(ctx context.Context) error {
	return m.Load(ctx, m.Filters())
}

// NeedsPrefetch reports whether the remaining undecided records have dropped
// to the low-water mark while the backend still has more and no prefetch is
// outstanding.
func (m *Manager) NeedsPrefetch() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded &&
		m.state == StateReady &&
		!m.exhausted &&
		!m.prefetching &&
		m.remainingLocked() <= m.lowWater
}

// Prefetch appends the next batch. Only one prefetch runs at a time; a call
// made while another is outstanding returns nil immediately.
func (m *Manager) Prefetch(ctx context.Context) error {
	m.mu.Lock()
	if m.prefetching || !m.loaded || m.exhausted {
		m.mu.Unlock()
		return nil
	}
	m.prefetching = true
	gen := m.generation
	fs := m.filters
	offset := m.offset
	m.mu.Unlock()

	for attempt := 1; ; attempt++ {
		offset += m.batch
		page, err := m.fetcher.ListDogs(ctx, fs.Query(m.batch, offset, m.randomize))

		m.mu.Lock()
		if gen != m.generation {
			m.mu.Unlock()
			return ErrSuperseded
		}
		if err != nil {
			m.prefetching = false
			m.failLocked(err)
			if m.remainingLocked() == 0 {
				m.state = StateError
			}
			m.mu.Unlock()
			m.reportFailure("prefetch", fs, err)
			return fmt.Errorf("prefetch queue: %w", err)
		}

		before := len(m.items)
		m.items = m.admitLocked(m.items, m.seen, page.Dogs)
		added := len(m.items) - before
		m.offset = offset
		m.exhausted = m.isLastPage(page, offset)
		if added == 0 && !m.exhausted && (attempt < maxSkippedPages || m.remainingLocked() == 0) {
			m.mu.Unlock()
			continue
		}

		dropped := m.trimLocked()
		m.prefetching = false
		m.succeedLocked()
		if m.remainingLocked() == 0 && m.exhausted {
			m.state = StateEmpty
		} else {
			m.state = StateReady
		}
		cursor := m.cursorLocked()
		exhausted := m.exhausted
		m.mu.Unlock()

		m.saveCursor(cursor)
		m.log.Debug("queue prefetched",
			zap.Int("offset", offset),
			zap.Int("added", added),
			zap.Int("dropped", dropped),
			zap.Bool("exhausted", exhausted))
		return nil
	}
}

// Retry repeats whatever failed last: the initial load when it never
// succeeded for the current filters, otherwise a prefetch. Without a failure
// it still runs a prefetch that is due.
func (m *Manager) Retry(ctx context.Context) error {
	m.mu.RLock()
	loaded, fs, lastErr := m.loaded, m.filters, m.lastErr
	m.mu.RUnlock()

	if lastErr == nil {
		if m.NeedsPrefetch() {
			return m.Prefetch(ctx)
		}
		return nil
	}
	if !loaded {
		return m.Load(ctx, fs)
	}
	return m.Prefetch(ctx)
}

// Current returns the dog at the cursor.
func (m *Manager) Current() (rescue.Dog, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.index >= len(m.items) {
		return rescue.Dog{}, false
	}
	return m.items[m.index], true
}

// Remaining returns the number of resident undecided dogs.
func (m *Manager) Remaining() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.remainingLocked()
}

// Advance moves the cursor past id. It is a no-op returning false unless id
// is the dog currently at the cursor, so a replayed gesture cannot skip a
// second dog.
func (m *Manager) Advance(id rescue.DogID) bool {
	m.mu.Lock()
	if m.index >= len(m.items) || m.items[m.index].ID != id {
		m.mu.Unlock()
		return false
	}
	m.index++
	if m.remainingLocked() == 0 && m.exhausted {
		m.state = StateEmpty
	}
	cursor := m.cursorLocked()
	m.mu.Unlock()

	m.saveCursor(cursor)
	return true
}

// Window returns up to radius resident dogs on each side of id and the
// position of id within the returned slice.
func (m *Manager) Window(id rescue.DogID, radius int) ([]rescue.Dog, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, dog := range m.items {
		if dog.ID != id {
			continue
		}
		start := max(0, i-radius)
		end := min(len(m.items), i+radius+1)
		return cloneDogs(m.items[start:end]), i - start, true
	}
	return nil, 0, false
}

// Snapshot returns a copy of the queue.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		State:               m.state,
		Filters:             m.filters,
		Items:               cloneDogs(m.items),
		Index:               m.index,
		Offset:              m.offset,
		Exhausted:           m.exhausted,
		Prefetching:         m.prefetching,
		Generation:          m.generation,
		LastUpdated:         m.updated,
		ConsecutiveFailures: m.failures,
	}
	if m.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", m.lastErr)
	}
	return snap
}

// admitLocked appends the incoming dogs that are neither decided nor already
// in seen, recording each admitted id in seen.
func (m *Manager) admitLocked(dst []rescue.Dog, seen map[rescue.DogID]struct{}, incoming []rescue.Dog) []rescue.Dog {
	for _, dog := range incoming {
		if dog.ID == "" || m.decisions.Has(dog.ID) {
			continue
		}
		if _, dup := seen[dog.ID]; dup {
			continue
		}
		seen[dog.ID] = struct{}{}
		dst = append(dst, dog)
	}
	return dst
}

func (m *Manager) isLastPage(page rescue.DogPage, offset int) bool {
	if len(page.Dogs) < m.batch {
		return true
	}
	return page.Total != nil && offset+len(page.Dogs) >= *page.Total
}

// trimLocked drops the oldest decided records beyond maxSize and rebuilds
// the seen set from what remains resident.
func (m *Manager) trimLocked() int {
	excess := len(m.items) - m.maxSize
	drop := min(excess, m.index)
	if drop <= 0 {
		return 0
	}
	m.items = cloneDogs(m.items[drop:])
	m.index -= drop
	m.seen = make(map[rescue.DogID]struct{}, len(m.items))
	for _, dog := range m.items {
		m.seen[dog.ID] = struct{}{}
	}
	return drop
}

func (m *Manager) remainingLocked() int {
	if m.index >= len(m.items) {
		return 0
	}
	return len(m.items) - m.index
}

func (m *Manager) succeedLocked() {
	m.lastErr = nil
	m.failures = 0
	m.updated = time.Now()
}

func (m *Manager) failLocked(err error) {
	m.lastErr = err
	m.failures++
	m.updated = time.Now()
}

func (m *Manager) reportFailure(op string, fs filters.FilterSet, err error) {
	m.log.Warn("queue fetch failed",
		zap.String("op", op),
		zap.Stringer("filters", fs),
		zap.Error(err))
	m.sink.Exception(err, telemetry.Props{"op": op, "country": fs.Country})
}
