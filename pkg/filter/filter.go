// Package filter implements the text search and status filter shared by every
// list screen: provider bookings, reservation cards and catalog items.
package filter

import (
	"strings"

	"marketplace/pkg/model"
)

// Searchable is anything with a title, a description and a status to filter on.
type Searchable interface {
	SearchTitle() string
	SearchDescription() string
	FilterStatus() string
}

// Tagged items are also matched against their tags.
type Tagged interface {
	SearchTags() []string
}

// Apply returns the items whose title, description or tags contain term
// (case-insensitive, taken as-is with surrounding spaces) and whose status
// equals status. An empty term matches everything and status "all" disables
// the status predicate. The result keeps the input order.
func Apply[T Searchable](items []T, term string, status string) []T {
	needle := strings.ToLower(term)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !MatchStatus(item, status) {
			continue
		}
		if !MatchTerm(item, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// MatchStatus reports whether item passes the status predicate.
func MatchStatus(item Searchable, status string) bool {
	if status == "" || status == model.StatusAll {
		return true
	}
	return item.FilterStatus() == status
}

// MatchTerm expects needle to be lower-cased already.
func MatchTerm(item Searchable, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.SearchTitle()), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(item.SearchDescription()), needle) {
		return true
	}
	tagged, ok := item.(Tagged)
	if !ok {
		return false
	}
	for _, tag := range tagged.SearchTags() {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
