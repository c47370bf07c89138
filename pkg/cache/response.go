package cache

import "fmt"

// CachedResponse wraps data that may have been served from an expired
// cache after an upstream failure. Construct values with Fresh or Stale
// only; the constructors keep IsStale and Warning consistent.
type CachedResponse[T any] struct {
	// Data is the payload, fresh or stale.
	Data T `json:"data"`

	// IsStale is true when Data came from an expired cache entry
	// because the upstream could not be reached.
	IsStale bool `json:"is_stale"`

	// Warning is a human-readable notice, present iff IsStale is true.
	Warning string `json:"warning,omitempty"`
}

// Fresh wraps data fetched live or served from a valid cache entry.
func Fresh[T any](data T) CachedResponse[T] {
	return CachedResponse[T]{Data: data}
}

// Stale wraps expired cached data served because the upstream failed.
// The warning names the data category so callers can show a "may be
// outdated" notice.
func Stale[T any](data T, dataType string) CachedResponse[T] {
	return CachedResponse[T]{
		Data:    data,
		IsStale: true,
		Warning: fmt.Sprintf("This %s may be outdated. Unable to fetch latest data from the source.", dataType),
	}
}
