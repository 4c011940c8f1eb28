// Package storage provides pawswipe's durable key/value state.
//
// All swipe state (filters, decided dogs, onboarding completion, queue
// cursor) goes through Store, which never returns errors to callers: a
// missing key, a malformed value or a failing backend all read as "absent",
// and failed writes are logged and dropped. The in-memory session state
// stays authoritative when the disk does not cooperate.
package storage

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/logging"
)

// Well-known keys.
const (
	KeyFilters    = "swipeFilters"
	KeyDecisions  = "swipeDecisions"
	KeyOnboarding = "swipeOnboarding"
	KeyCursor     = "swipeQueueCursor"
)

var (
	// ErrNotFound indicates that a key holds no value.
	ErrNotFound = errors.New("key not found")

	// ErrClosed indicates that the backend was already closed.
	ErrClosed = errors.New("storage is closed")
)

// Backend is a raw key/value store that reports failures.
type Backend interface {
	Get(key string) ([]byte, error)
	// Put writes every entry or none of them.
	Put(entries map[string][]byte) error
	Delete(keys ...string) error
	Close() error
}

// Store wraps a Backend with result-or-default semantics.
type Store struct {
	backend Backend
	log     *zap.Logger
}

// New returns a Store over backend. A nil backend gets an in-memory one.
func New(backend Backend, logger *zap.Logger) *Store {
	if backend == nil {
		backend = NewMemory()
	}
	return &Store{backend: backend, log: logging.OrNop(logger).Named("storage")}
}

// Get returns the raw value for key and whether it was present.
func (s *Store) Get(key string) ([]byte, bool) {
	value, err := s.backend.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key. Failures are logged and ignored.
func (s *Store) Set(key string, value []byte) {
	s.SetBatch(map[string][]byte{key: value})
}

// SetBatch stores all entries atomically. Failures are logged and ignored.
func (s *Store) SetBatch(entries map[string][]byte) {
	if len(entries) == 0 {
		return
	}
	if err := s.backend.Put(entries); err != nil {
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		s.log.Warn("write failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Remove deletes keys. Failures are logged and ignored.
func (s *Store) Remove(keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.backend.Delete(keys...); err != nil {
		s.log.Warn("delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// GetJSON decodes the value under key into dst. It reports false when the
// key is missing or the stored JSON does not decode; dst is left untouched
// in that case.
func (s *Store) GetJSON(key string, dst any) bool {
	raw, ok := s.Get(key)
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Info("discarding malformed value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.Set(key, raw)
}

// EncodeJSON is a helper for building SetBatch entries.
func EncodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
