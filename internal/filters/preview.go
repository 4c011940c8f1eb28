package filters

import (
	"context"
	"sync"
	"time"

	"github.com/five82/pawswipe/internal/rescue"
)

// DefaultPreviewDelay is the quiet period before a preview count is fetched.
const DefaultPreviewDelay = 300 * time.Millisecond

const previewTimeout = 10 * time.Second

// Preview is the match count for an edited FilterSet.
type Preview struct {
	Filters FilterSet
	Count   int
	Err     error

	generation uint64
}

// Previewer fetches match counts for filters being edited. Requests are
// debounced, and a newer request supersedes any older one: its pending timer
// is dropped, its in-flight fetch is cancelled and its result is never
// delivered.
type Previewer struct {
	counter rescue.Counter
	delay   time.Duration
	results chan Preview

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	timer    *time.Timer
	inflight context.CancelFunc
	gen      uint64
	stopped  bool
	wg       sync.WaitGroup
}

// NewPreviewer returns a Previewer. A non-positive delay uses
// DefaultPreviewDelay.
func NewPreviewer(counter rescue.Counter, delay time.Duration) *Previewer {
	if delay <= 0 {
		delay = DefaultPreviewDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Previewer{
		counter: counter,
		delay:   delay,
		results: make(chan Preview, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Results delivers the latest preview. Only the newest unread result is
// buffered.
func (p *Previewer) Results() <-chan Preview {
	return p.results
}

// Request schedules a count for fs after the debounce delay. Sets without a
// country are not counted; the request still supersedes older ones.
func (p *Previewer) Request(fs FilterSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.gen++
	p.supersedeLocked()
	if !fs.IsValid() {
		return
	}

	gen := p.gen
	p.wg.Add(1)
	p.timer = time.AfterFunc(p.delay, func() {
		defer p.wg.Done()
		p.run(gen, fs)
	})
}

// IsCurrent reports whether r answers the most recent Request.
func (p *Previewer) IsCurrent(r Preview) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.generation == p.gen
}

// Stop cancels pending work and waits for running fetches to return.
func (p *Previewer) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		p.supersedeLocked()
		p.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// supersedeLocked drops the pending timer and aborts the in-flight fetch.
func (p *Previewer) supersedeLocked() {
	if p.timer != nil {
		if p.timer.Stop() {
			p.wg.Done()
		}
		p.timer = nil
	}
	if p.inflight != nil {
		p.inflight()
		p.inflight = nil
	}
}

func (p *Previewer) run(gen uint64, fs FilterSet) {
	p.mu.Lock()
	if gen != p.gen || p.stopped {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(p.ctx, previewTimeout)
	p.inflight = cancel
	p.mu.Unlock()
	defer cancel()

	count, err := p.counter.CountDogs(ctx, fs.Query(0, 0, false))

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.stopped {
		return
	}
	p.inflight = nil
	p.deliverLocked(Preview{Filters: fs, Count: count, Err: err, generation: gen})
}

func (p *Previewer) deliverLocked(r Preview) {
	select {
	case <-p.results:
	default:
	}
	p.results <- r
}
