package swipe

import (
	"sync"
	"time"

	"github.com/five82/pawswipe/internal/rescue"
)

// DefaultTapWindow separates a double tap from two single taps.
const DefaultTapWindow = 300 * time.Millisecond

// TapAction is what a tap resolves to.
type TapAction int

const (
	// TapPending means the tap may still become a double tap.
	TapPending TapAction = iota
	// TapExpand opens the detail view.
	TapExpand
	// TapAccept is the double-tap accept shortcut.
	TapAccept
	// TapNone means the tap was consumed or superseded.
	TapNone
)

// TapDetector tells a single tap (expand) from a double tap (accept). Call
// Tap on every tap and, once the window has passed, Resolve with the
// sequence number Tap returned.
type TapDetector struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	seq     uint64
	last    time.Time
	lastID  rescue.DogID
	pending bool
}

// NewTapDetector returns a detector. A non-positive window uses
// DefaultTapWindow.
func NewTapDetector(window time.Duration) *TapDetector {
	if window <= 0 {
		window = DefaultTapWindow
	}
	return &TapDetector{window: window, now: time.Now}
}

// Window returns the double-tap window.
func (d *TapDetector) Window() time.Duration {
	return d.window
}

// Tap registers a tap on id. It returns TapAccept when this tap completes a
// double tap on the same dog, otherwise TapPending and the sequence number
// to pass to Resolve.
func (d *TapDetector) Tap(id rescue.DogID) (TapAction, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.seq++
	if d.pending && d.lastID == id && now.Sub(d.last) <= d.window {
		d.pending = false
		return TapAccept, d.seq
	}
	d.pending = true
	d.last = now
	d.lastID = id
	return TapPending, d.seq
}

// Resolve turns the pending tap seq into an expand. It returns TapNone when
// a later tap superseded seq or it already completed a double tap.
func (d *TapDetector) Resolve(seq uint64) TapAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending || seq != d.seq {
		return TapNone
	}
	d.pending = false
	return TapExpand
}

// Reset drops any pending tap.
func (d *TapDetector) Reset() {
	d.mu.Lock()
	d.pending = false
	d.seq++
	d.mu.Unlock()
}
