// Package queue maintains the ordered list of dogs the user swipes through.
//
// # Lifecycle
//
//	NeedsFilters --Load(valid)--> Loading --ok--> Ready | Empty
//	                                 \--err--> Error
//	Ready --Prefetch--> Ready | Empty
//
// Load fetches offset 0 for a FilterSet and replaces the queue. Each Load
// bumps a generation counter; a fetch that returns after a newer Load is
// dropped with ErrSuperseded.
//
// # Deduplication
//
// Records are admitted only if their id is not in Decisions and not already
// resident. When the queue grows past its maximum size the oldest decided
// records are dropped and the seen set is rebuilt from what remains, so the
// set tracks residents only.
//
// # Prefetch
//
// NeedsPrefetch turns true once the undecided remainder reaches the
// low-water mark. Prefetch requests offset+batch and is guarded so that
// only one runs at a time. A short page, or reaching the reported total,
// marks the listing exhausted.
//
// # Failures
//
// A failed fetch never touches resident records. It records LastError,
// increments ConsecutiveFailures (two or more reads as offline) and reports
// the exception to telemetry. Retry repeats the failed step.
//
// # Snapshots
//
// Snapshot returns a copy taken under a read lock so the UI can render
// without racing the fetch goroutines.
package queue
