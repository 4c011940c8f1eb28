// Package rescue provides an HTTP client for the rescue-dog aggregation API.
//
// # Overview
//
// The backend aggregates adoptable dogs from many rescue organizations and
// exposes a small JSON API. pawswipe only reads listings and counts and
// writes favorites.
//
// # API Endpoints
//
//   - GET /api/dogs: one page of dogs; accepts country, repeated size and
//     age values, limit, offset and randomize=1. Returns {"dogs": [...],
//     "total": N} where total is optional.
//   - GET /api/dogs/count: number of dogs matching the same filter params.
//   - GET /api/dogs/filter-counts?country=XX: per-size and per-age counts.
//   - POST /api/favorites: {"dog_id": "...", "name": "..."}.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: pawswipe/0.1
//   - Have a 10-second timeout
//   - Wait on an optional rate.Limiter (WithRateLimit) so filter editing and
//     prefetching cannot flood the backend
//
// Status codes >= 400 are returned as *StatusError so callers can tell a
// rejected request from a transport failure.
//
// # Identifiers
//
// Some organizations use numeric ids and some use slugs. DogID decodes
// either form into a string so the rest of pawswipe deals with one type.
//
// # Testing
//
// The narrow interfaces (DogLister, Counter, Favoriter) let the queue,
// decision handler and onboarding flow run against in-memory fakes.
package rescue
