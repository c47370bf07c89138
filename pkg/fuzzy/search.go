package fuzzy

import "sort"

// Defaults for Search options.
const (
	DefaultThreshold = 0.3
	DefaultLimit     = 20
)

// Match pairs an item with its relevance score.
type Match[T any] struct {
	Item  T       `json:"item"`
	Score float64 `json:"score"`
}

// Options configures a Search call. The zero value applies
// DefaultThreshold and DefaultLimit with no state extractor.
type Options[T any] struct {
	// State extracts an optional state code from an item.
	State func(T) string

	// Threshold is the minimum score to include a result. Zero means
	// DefaultThreshold.
	Threshold float64

	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int
}

// Search scores every item against query and returns matches at or above
// the threshold, sorted by descending score. Ties are broken by ascending
// key length, preferring shorter (more specific) names. An empty query or
// item list yields an empty result, not an error.
func Search[T any](query string, items []T, key func(T) string, opts Options[T]) []Match[T] {
	if query == "" || len(items) == 0 {
		return nil
	}

	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	var results []Match[T]
	for _, item := range items {
		state := ""
		if opts.State != nil {
			state = opts.State(item)
		}

		score := MatchScore(query, key(item), state)
		if score >= threshold {
			results = append(results, Match[T]{Item: item, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return len(key(results[i].Item)) < len(key(results[j].Item))
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results
}
