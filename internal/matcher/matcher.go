// Package matcher implements the pure predicates that decide whether
// an item matches a filter set: keyword, category, and author checks.
package matcher

import (
	"regexp"
	"strings"
)

// MatchKeywords reports whether any keyword occurs in text as a whole
// word, case-insensitively. A keyword never matches as a substring of
// a larger word ("docker" does not match "dockerized"). An empty
// keyword set is an open filter and matches everything.
func MatchKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if MatchWord(text, kw) {
			return true
		}
	}
	return false
}

// MatchWord reports whether a single keyword occurs in text as a whole
// word. An empty keyword matches nothing.
func MatchWord(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// MatchCategory reports whether a category passes the allow-list.
// An empty allow-list allows everything; otherwise the category must
// be an exact member after trimming.
func MatchCategory(category string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	category = strings.TrimSpace(category)
	for _, a := range allow {
		if strings.TrimSpace(a) == category {
			return true
		}
	}
	return false
}

// NormalizeAuthor lower-cases, trims, and strips a leading "u/" or
// "/u/" origin marker from an author name.
func NormalizeAuthor(author string) string {
	a := strings.ToLower(strings.TrimSpace(author))
	a = strings.TrimPrefix(a, "/")
	a = strings.TrimPrefix(a, "u/")
	return a
}

// MatchAuthor reports whether the author is a member of the given
// set. Both sides are normalized before comparison.
func MatchAuthor(author string, authors []string) bool {
	a := NormalizeAuthor(author)
	if a == "" {
		return false
	}
	for _, w := range authors {
		if NormalizeAuthor(w) == a {
			return true
		}
	}
	return false
}
