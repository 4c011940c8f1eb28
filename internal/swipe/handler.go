package swipe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/queue"
	"github.com/five82/pawswipe/internal/rescue"
	"github.com/five82/pawswipe/internal/telemetry"
)

var (
	// ErrBusy is returned when a decision arrives while another is being
	// committed.
	ErrBusy = errors.New("decision already in progress")

	// ErrEmpty is returned when there is no dog to decide on.
	ErrEmpty = errors.New("queue is empty")

	// ErrStale is returned when the gesture targets a dog that is no longer
	// at the head of the queue. Nothing was changed.
	ErrStale = errors.New("dog is no longer current")
)

// Direction is the user's verdict.
type Direction int

const (
	Reject Direction = iota
	Accept
)

func (d Direction) String() string {
	if d == Accept {
		return "accept"
	}
	return "reject"
}

// Gesture is a decision on a specific dog.
type Gesture struct {
	DogID     rescue.DogID
	Direction Direction
}

// Phase is the handler's position in a decision cycle.
type Phase int

const (
	Idle Phase = iota
	Deciding
	Committing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Deciding:
		return "deciding"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Queue is the part of queue.Manager the handler drives.
type Queue interface {
	Current() (rescue.Dog, bool)
	Advance(id rescue.DogID) bool
	NeedsPrefetch() bool
	Prefetch(ctx context.Context) error
}

// Recorder stores decided ids.
type Recorder interface {
	Add(id rescue.DogID) bool
}

// Outcome describes a committed decision.
type Outcome struct {
	Dog       rescue.Dog
	Direction Direction
	// Favorite receives the result of the favorite write started for an
	// accept, exactly once. It is nil when no write was started.
	Favorite    <-chan error
	Prefetching bool
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.log = logging.OrNop(logger).Named("swipe") }
}

// WithTelemetry sets the event sink.
func WithTelemetry(sink telemetry.Sink) Option {
	return func(h *Handler) { h.sink = telemetry.OrNop(sink) }
}

// Handler commits swipe decisions one at a time.
type Handler struct {
	queue     Queue
	decisions Recorder
	favorites rescue.Favoriter
	log       *zap.Logger
	sink      telemetry.Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	phase Phase
}

// NewHandler returns a Handler. favorites may be nil, in which case accepts
// are only recorded locally.
func NewHandler(q Queue, decisions Recorder, favorites rescue.Favoriter, opts ...Option) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		queue:     q,
		decisions: decisions,
		favorites: favorites,
		log:       zap.NewNop(),
		sink:      telemetry.Nop{},
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Phase returns the current phase.
func (h *Handler) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// Decide commits g against the dog at the head of the queue. The head is
// read when the decision starts committing, not when the gesture began, so a
// gesture for a dog that already moved on returns ErrStale and changes
// nothing. The queue advances and the decision is recorded before the
// favorite write for an accept is sent; that write runs in the background
// and reports through Outcome.Favorite and telemetry.
func (h *Handler) Decide(ctx context.Context, g Gesture) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if !h.transition(Idle, Deciding) {
		return Outcome{}, ErrBusy
	}
	defer h.setPhase(Idle)

	dog, ok := h.queue.Current()
	if !ok {
		return Outcome{}, ErrEmpty
	}
	if dog.ID != g.DogID {
		h.log.Debug("ignoring stale gesture",
			zap.Stringer("gesture", g.DogID), zap.Stringer("current", dog.ID))
		return Outcome{}, ErrStale
	}

	h.setPhase(Committing)
	out := Outcome{Dog: dog, Direction: g.Direction}
	props := telemetry.Props{"dog": dog.ID.String()}

	if !h.queue.Advance(dog.ID) {
		h.log.Debug("queue moved during commit", zap.Stringer("dog", dog.ID))
	}
	h.decisions.Add(dog.ID)

	if g.Direction == Accept {
		if h.favorites != nil {
			out.Favorite = h.saveFavorite(dog)
		}
		h.sink.Event(telemetry.EventSwipedRight, props)
	} else {
		h.sink.Event(telemetry.EventSwipedLeft, props)
	}

	if h.queue.NeedsPrefetch() {
		out.Prefetching = true
		h.replenish()
	}
	return out, nil
}

// Expanded records that the user opened the detail view for id.
func (h *Handler) Expanded(id rescue.DogID) {
	h.sink.Event(telemetry.EventCardExpanded, telemetry.Props{"dog": id.String()})
}

// Wait blocks until background prefetches and favorite writes started by
// Decide have returned.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// Close cancels background work and waits for it.
func (h *Handler) Close() {
	h.cancel()
	h.wg.Wait()
}

func (h *Handler) replenish() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.queue.Prefetch(h.ctx); err != nil && !errors.Is(err, queue.ErrSuperseded) {
			h.log.Debug("background prefetch failed", zap.Error(err))
		}
	}()
}

func (h *Handler) saveFavorite(dog rescue.Dog) <-chan error {
	result := make(chan error, 1)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		err := h.favorites.AddFavorite(h.ctx, dog.ID, dog.Name)
		if err != nil {
			err = fmt.Errorf("add favorite: %w", err)
			h.log.Warn("favorite write failed", zap.Stringer("dog", dog.ID), zap.Error(err))
			h.sink.Exception(err, telemetry.Props{"op": "favorite", "dog": dog.ID.String()})
		}
		result <- err
	}()
	return result
}

func (h *Handler) transition(from, to Phase) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.phase != from {
		return false
	}
	h.phase = to
	return true
}

func (h *Handler) setPhase(p Phase) {
	h.mu.Lock()
	h.phase = p
	h.mu.Unlock()
}
