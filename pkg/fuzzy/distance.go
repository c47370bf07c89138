// Package fuzzy implements typo-tolerant name matching for legislator
// search and autocomplete. It combines Levenshtein distance, token-set
// similarity and prefix matching into a single relevance score.
package fuzzy

import (
	"strings"
	"unicode"
)

// Distance returns the Levenshtein (edit) distance between a and b:
// the minimum number of single-character insertions, deletions or
// substitutions required to turn a into b. Case-sensitive.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	// Keep the shorter string in rb so the row buffer stays small.
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range ra {
		curr[0] = i + 1
		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}
			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Ratio returns a similarity ratio in [0,1] between a and b,
// case-insensitive: 1 - distance/maxLen. Both empty yields 1.0,
// exactly one empty yields 0.0.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	la := strings.ToLower(a)
	lb := strings.ToLower(b)

	maxLen := len([]rune(la))
	if n := len([]rune(lb)); n > maxLen {
		maxLen = n
	}

	return 1.0 - float64(Distance(la, lb))/float64(maxLen)
}

// Tokenize splits text into lowercase tokens, stripping punctuation.
// Empty tokens are dropped.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	return strings.Fields(cleaned)
}

// TokenSetSimilarity scores how well the token sets of a and b overlap,
// in [0,1]. Each token of the smaller set earns full credit for an exact
// match in the other set, or 0.8 credit for a fuzzy match (Ratio >= 0.8
// on tokens longer than 2 runes). The sum is normalized by the smaller
// set size, so word reordering ("Last, First" vs "First Last") and
// surname-only queries still score high.
func TokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	if len(setA) > len(setB) {
		setA, setB = setB, setA
	}

	var matched float64
	for _, ta := range setA {
		for _, tb := range setB {
			if ta == tb {
				matched += 1.0
				break
			}
			if len(ta) > 2 && len(tb) > 2 && Ratio(ta, tb) >= 0.8 {
				matched += 0.8
				break
			}
		}
	}

	return matched / float64(len(setA))
}

// PrefixScore scores query as a prefix of text, in [0,1]. A full prefix
// match scores len(query)/len(text); a prefix match on the first matching
// token scores 0.8*len(query)/len(token); anything else scores 0.
func PrefixScore(query, text string) float64 {
	q := strings.ToLower(query)
	t := strings.ToLower(text)

	if q == "" || t == "" {
		return 0.0
	}

	if strings.HasPrefix(t, q) {
		return float64(len(q)) / float64(len(t))
	}

	for _, token := range Tokenize(text) {
		if strings.HasPrefix(token, q) {
			return 0.8 * float64(len(q)) / float64(len(token))
		}
	}

	return 0.0
}

// tokenSet returns the deduplicated tokens of s.
func tokenSet(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Tokenize(s) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
