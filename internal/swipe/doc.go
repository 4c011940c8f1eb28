// Package swipe commits accept and reject decisions on the queue head.
//
// A decision cycle moves Idle -> Deciding -> Committing -> Idle. Decide
// refuses to start while another cycle is running (ErrBusy) and always
// returns to Idle. The queue advances and the decision is recorded locally
// first; the favorite write for an accept then runs in the background and
// delivers its result on Outcome.Favorite. After the commit, if the queue has
// dropped to its low-water mark, a prefetch is started in the background.
// Wait and Close join both kinds of background work.
//
// TapDetector implements the tap gesture: one tap expands the card after the
// double-tap window, two taps on the same dog inside the window accept it.
package swipe
