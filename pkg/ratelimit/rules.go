// Package ratelimit implements per-client fixed-window request limiting
// and the HTTP admission-control middleware built on top of it.
//
// Counters reset entirely when their window elapses; partial usage does
// not carry over into the next window. This is an accepted imprecision
// compared to a sliding log, traded for O(1) state per (client, rule).
package ratelimit

import (
	"regexp"
	"time"
)

// Rule defines a request budget for paths matching a pattern.
type Rule struct {
	// Requests is the maximum number of requests per window.
	Requests int

	// Window is the length of the fixed window.
	Window time.Duration

	// Pattern matches request paths this rule applies to. A nil
	// pattern marks the catch-all default rule; exactly one default
	// must exist in an active rule set.
	Pattern *regexp.Regexp
}

// Key returns the counter key for the rule: the pattern source, or
// "default" for the catch-all rule.
func (r Rule) Key() string {
	if r.Pattern == nil {
		return "default"
	}
	return r.Pattern.String()
}

// Matches reports whether the rule applies to the given path. The
// default rule matches everything.
func (r Rule) Matches(path string) bool {
	if r.Pattern == nil {
		return true
	}
	return r.Pattern.MatchString(path)
}

// DefaultRules returns the standard rule set.
//
// Known limitation: the middleware enforces only the first matching rule
// per request, so the hourly chat rule below is shadowed by the
// per-minute one. Enforcing multiple simultaneous windows on the same
// prefix would require registering them as independently keyed rules and
// checking each, or extending the matcher to aggregate.
func DefaultRules() []Rule {
	return []Rule{
		// AI chat endpoints carry expensive upstream calls.
		{Requests: 20, Window: time.Minute, Pattern: regexp.MustCompile(`^/chat`)},
		{Requests: 100, Window: time.Hour, Pattern: regexp.MustCompile(`^/chat`)},
		{Requests: 60, Window: time.Minute, Pattern: regexp.MustCompile(`^/api/`)},
		{Requests: 30, Window: time.Minute, Pattern: regexp.MustCompile(`^/search`)},
		// Lenient default for everything else.
		{Requests: 120, Window: time.Minute},
	}
}

// MatchRule returns the most specific rule for a path: the first
// pattern rule that matches, else the registered default, else a
// hardcoded safe fallback.
func MatchRule(rules []Rule, path string) Rule {
	var def *Rule
	for i := range rules {
		if rules[i].Pattern == nil {
			if def == nil {
				def = &rules[i]
			}
			continue
		}
		if rules[i].Matches(path) {
			return rules[i]
		}
	}
	if def != nil {
		return *def
	}
	return Rule{Requests: 120, Window: time.Minute}
}
