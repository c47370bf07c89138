package fuzzy

import "strings"

// Score bands for the individual match strategies. Each strategy returns
// a value in its own disjoint sub-range so relative ordering between
// match types is preserved.
const (
	scoreSubstringBoundary = 1.0
	scoreSubstring         = 0.95
	scoreState             = 0.9
	prefixThreshold        = 0.5
	tokenThreshold         = 0.8
	stringThreshold        = 0.6
	partialTokenThreshold  = 0.75
)

// MatchScore calculates an overall relevance score in [0,1] for query
// against a legislator name, with an optional two-letter state code.
//
// Strategies are tried in priority order, first applicable wins:
//  1. exact case-insensitive substring (1.0 at a word boundary, else 0.95)
//  2. exact state-code match (0.9)
//  3. prefix match (0.85..0.95)
//  4. token-set similarity (0.82..0.85)
//  5. whole-string similarity (0.68..0.8)
//  6. single-token similarity for typo'd partial names (0.55..0.6)
func MatchScore(query, name, state string) float64 {
	q := strings.ToLower(query)
	n := strings.ToLower(name)

	if q == "" || n == "" {
		return 0.0
	}

	// Exact substring match, with a bonus for word boundaries.
	if strings.Contains(n, q) {
		if strings.HasPrefix(n, q) || strings.Contains(n, " "+q) {
			return scoreSubstringBoundary
		}
		return scoreSubstring
	}

	if state != "" && q == strings.ToLower(state) {
		return scoreState
	}

	if prefix := PrefixScore(query, name); prefix > prefixThreshold {
		return 0.85 + prefix*0.1
	}

	// Handles "Nancy Pelosi" vs "Pelosi, Nancy".
	if token := TokenSetSimilarity(query, name); token >= tokenThreshold {
		return 0.7 + token*0.15
	}

	// Handles typos like "Polosi" -> "Pelosi".
	if str := Ratio(query, name); str >= stringThreshold {
		return 0.5 + str*0.3
	}

	// Last resort: any sufficiently long query token close to any name token.
	var best float64
	for _, qt := range Tokenize(query) {
		if len(qt) < 3 {
			continue
		}
		for _, nt := range Tokenize(name) {
			if r := Ratio(qt, nt); r >= partialTokenThreshold && r > best {
				best = r
			}
		}
	}
	if best > 0 {
		return 0.4 + best*0.2
	}

	return 0.0
}
