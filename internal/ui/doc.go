// Package ui provides the terminal user interface for pawswipe.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds every piece of view state and
// talks to the swipe subsystem only through commands, so network calls never
// run inside Update:
//
//   - queue.Manager: snapshots are re-read on a short tick and after every
//     decision or load
//   - swipe.Handler: left/right keys become Decide commands
//   - swipe.TapDetector: enter once opens the detail view after the tap
//     window, twice within the window likes the dog
//   - navcache.Navigator: the detail view moves between neighbors through
//     the LRU window cache
//   - filters.Previewer: the filter editor shows a debounced match count
//   - preload.Preloader: images of the next dogs are warmed on each snapshot
//
// # Views
//
//   - Onboarding: country list with live counts, then optional sizes
//   - Cards: the dog at the head of the queue, or the loading, empty, error
//     and needs-filters states
//   - Detail: full profile with previous/next navigation
//   - Filters: country, size and age editor
//
// A help overlay lists all bindings. "T" cycles the theme and "c" toggles
// compact cards; both are saved to the preferences file.
package ui
