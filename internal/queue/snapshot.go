package queue

import (
	"fmt"
	"time"

	"github.com/five82/pawswipe/internal/filters"
	"github.com/five82/pawswipe/internal/rescue"
)

// State is the queue's lifecycle state.
type State int

const (
	// StateNeedsFilters means no valid FilterSet has been applied yet.
	StateNeedsFilters State = iota
	// StateLoading means the first batch for the current filters is in flight.
	StateLoading
	// StateReady means the queue holds undecided dogs or can fetch more.
	StateReady
	// StateEmpty means the backend has no more undecided dogs for the filters.
	StateEmpty
	// StateError means the last fetch failed and nothing is left to show.
	StateError
)

func (s State) String() string {
	switch s {
	case StateNeedsFilters:
		return "needs-filters"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a copy of the queue for rendering.
type Snapshot struct {
	State       State
	Filters     filters.FilterSet
	Items       []rescue.Dog
	Index       int
	Offset      int
	Exhausted   bool
	Prefetching bool
	Generation  uint64

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// Remaining returns how many undecided dogs are resident.
func (s Snapshot) Remaining() int {
	if s.Index >= len(s.Items) {
		return 0
	}
	return len(s.Items) - s.Index
}

// Current returns the dog at the cursor.
func (s Snapshot) Current() (rescue.Dog, bool) {
	if s.Index < 0 || s.Index >= len(s.Items) {
		return rescue.Dog{}, false
	}
	return s.Items[s.Index], true
}

// Upcoming returns up to n dogs after the cursor.
func (s Snapshot) Upcoming(n int) []rescue.Dog {
	start := s.Index + 1
	if n <= 0 || start >= len(s.Items) {
		return nil
	}
	end := min(start+n, len(s.Items))
	return s.Items[start:end]
}

// IsOffline returns true when the API has failed several fetches in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

func cloneDogs(items []rescue.Dog) []rescue.Dog {
	if len(items) == 0 {
		return nil
	}
	dup := make([]rescue.Dog, len(items))
	copy(dup, items)
	return dup
}
