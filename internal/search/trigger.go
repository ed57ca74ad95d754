package search

import "regexp"

// The three trigger families. Matching is uniformly case-insensitive and
// unanchored: earlier revisions of this service disagreed on whether the
// interrogative and how-to patterns were anchored at string start, and the
// unanchored form was chosen for all of them (see DESIGN.md).
var triggerPatterns = []*regexp.Regexp{
	// Interrogative / definitional openers
	regexp.MustCompile(`(?i)\b(what|who|where|when|why|how)\s+(is|are|was|were|do|does|did|can|could)\b`),
	regexp.MustCompile(`(?i)\b(define|explain|tell me about)\b`),
	// Recency words anywhere
	regexp.MustCompile(`(?i)\b(news|latest|update|updates|today|current|recent)\b`),
	// How-to phrasing
	regexp.MustCompile(`(?i)\b(how to|tutorial|guide)\b`),
}

// ShouldSearch reports whether the message looks like it needs live web
// knowledge rather than conversation alone.
func ShouldSearch(message string) bool {
	for _, p := range triggerPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}
