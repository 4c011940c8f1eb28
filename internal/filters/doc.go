// Package filters holds the swipe queue's search criteria.
//
// A FilterSet is a value: country plus sorted, de-duplicated size and age
// selections. QueryString is deterministic so it can key caches. Store
// persists the active set under the swipeFilters key and upgrades values
// written by older clients, which stored country names instead of ISO codes.
// Previewer debounces match-count lookups while the user edits filters.
package filters
