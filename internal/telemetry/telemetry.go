// Package telemetry is the side channel for named product events and
// exception reports. Sinks never influence control flow: an unavailable or
// misbehaving sink only loses data.
package telemetry

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/logging"
)

// Event names.
const (
	EventQueueLoaded         = "queue_loaded"
	EventSwipedLeft          = "card_swiped_left"
	EventSwipedRight         = "card_swiped_right"
	EventCardExpanded        = "card_expanded"
	EventSessionStarted      = "session_started"
	EventSessionEnded        = "session_ended"
	EventOnboardingCompleted = "onboarding_completed"
)

// Props carries event properties.
type Props map[string]string

// Sink receives events and exceptions.
type Sink interface {
	Event(name string, props Props)
	Exception(err error, props Props)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Event(string, Props)    {}
func (Nop) Exception(error, Props) {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// LogSink writes events to a zap logger.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink returns a sink that logs events at debug and exceptions at warn.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{log: logging.OrNop(logger).Named("telemetry")}
}

func (s *LogSink) Event(name string, props Props) {
	s.log.Debug(name, propFields(props)...)
}

func (s *LogSink) Exception(err error, props Props) {
	if err == nil {
		return
	}
	s.log.Warn("exception", append(propFields(props), zap.Error(err))...)
}

func propFields(props Props) []zap.Field {
	fields := make([]zap.Field, 0, len(props))
	for k, v := range props {
		fields = append(fields, zap.String(k, v))
	}
	return fields
}

// Multi fans out to several sinks. A panicking sink is isolated from the
// others and from the caller.
type Multi []Sink

func (m Multi) Event(name string, props Props) {
	for _, s := range m {
		safely(func() { s.Event(name, props) })
	}
}

func (m Multi) Exception(err error, props Props) {
	for _, s := range m {
		safely(func() { s.Exception(err, props) })
	}
}

func safely(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// Session tags every event with a session id and emits start/end markers.
type Session struct {
	ID   string
	sink Sink

	endOnce sync.Once
}

// StartSession emits session_started and returns a Session sink.
func StartSession(sink Sink) *Session {
	s := &Session{ID: uuid.NewString(), sink: OrNop(sink)}
	s.sink.Event(EventSessionStarted, Props{"session": s.ID})
	return s
}

func (s *Session) Event(name string, props Props) {
	s.sink.Event(name, s.tag(props))
}

func (s *Session) Exception(err error, props Props) {
	s.sink.Exception(err, s.tag(props))
}

// End emits session_ended once.
func (s *Session) End() {
	s.endOnce.Do(func() {
		s.sink.Event(EventSessionEnded, Props{"session": s.ID})
	})
}

func (s *Session) tag(props Props) Props {
	out := make(Props, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out["session"] = s.ID
	return out
}
