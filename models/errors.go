// api/models/errors.go
package models

import "errors"

// Sentinel errors shared across the analytics packages. Callers match them
// with errors.Is; messages get wrapped with call-site context.
var (
	// ErrInvalidDateRange is returned when a start date falls after its end date.
	ErrInvalidDateRange = errors.New("start date is after end date")

	// ErrInvalidPercentage is returned when a timeline percentage is outside 0-100.
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")

	// ErrMissingMasterDataset is returned when a derived operation runs before
	// any master dataset has been fetched. The session controller treats this
	// as a signal to fetch, not as a user-facing failure.
	ErrMissingMasterDataset = errors.New("master dataset has not been fetched")

	// ErrUpstreamFetch is returned when the event store is unreachable or
	// returns a malformed response. The session keeps its last good dataset.
	ErrUpstreamFetch = errors.New("upstream event store fetch failed")

	// ErrTypeMismatch is returned when a date-like value cannot be resolved
	// to a calendar date.
	ErrTypeMismatch = errors.New("value is not resolvable to a date")
)
