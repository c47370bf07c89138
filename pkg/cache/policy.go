// Package cache provides the caching policy shared by all upstream data
// clients: per-category TTLs, the staleness predicate, and the
// CachedResponse wrapper every read-through operation returns.
package cache

import "time"

// Category identifies a cacheable data domain. Each category has a fixed
// TTL tuned to how often its upstream data actually changes.
type Category int

const (
	// News changes frequently; the short TTL also helps manage the
	// news provider's daily request quota.
	News Category = iota

	// Members covers basic legislator directory records.
	Members

	// Bills covers sponsored and cosponsored legislation.
	Bills

	// Votes covers roll-call vote records, immutable once recorded.
	Votes

	// Finance covers FEC campaign finance data, updated infrequently.
	Finance
)

// ttlTable maps each category to its TTL. Durations are constants and
// must never be mutated at runtime.
var ttlTable = map[Category]time.Duration{
	News:    1 * time.Hour,
	Members: 24 * time.Hour,
	Bills:   24 * time.Hour,
	Votes:   24 * time.Hour,
	Finance: 168 * time.Hour, // 1 week
}

// labelTable maps each category to its human-readable label, used in
// staleness warnings and log fields.
var labelTable = map[Category]string{
	News:    "news articles",
	Members: "member information",
	Bills:   "bill records",
	Votes:   "vote records",
	Finance: "campaign finance data",
}

// TTL returns the cache lifetime for the category.
func (c Category) TTL() time.Duration {
	return ttlTable[c]
}

// Label returns the human-readable label for the category.
func (c Category) Label() string {
	return labelTable[c]
}

// String returns the lowercase section name for the category.
func (c Category) String() string {
	switch c {
	case News:
		return "news"
	case Members:
		return "members"
	case Bills:
		return "bills"
	case Votes:
		return "votes"
	case Finance:
		return "finance"
	default:
		return "unknown"
	}
}

// IsValid reports whether data cached at cachedAt is still fresh for the
// category. A nil cachedAt is never valid. The comparison is a strict
// less-than, so an entry exactly at its TTL boundary is expired.
func IsValid(cachedAt *time.Time, c Category) bool {
	if cachedAt == nil {
		return false
	}
	return time.Now().UTC().Sub(cachedAt.UTC()) < c.TTL()
}
