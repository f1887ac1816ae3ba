// internal/discovery/search.go

package discovery

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"locbook/internal/domain/place"
)

// fold prepares text for case-insensitive comparison. NFC first so composed
// and decomposed Vietnamese diacritics compare equal.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// searchMatcher tests places against one folded search needle
type searchMatcher struct {
	needle string
}

func newSearchMatcher(text string) searchMatcher {
	return searchMatcher{needle: fold(text)}
}

// match reports whether the needle is empty or is a substring of the name,
// the address, any vibe or any category
func (m searchMatcher) match(p place.Place) bool {
	if m.needle == "" {
		return true
	}
	if strings.Contains(fold(p.Name), m.needle) || strings.Contains(fold(p.Address), m.needle) {
		return true
	}
	return anyContains(p.Vibes, m.needle) || anyContains(p.Categories, m.needle)
}

func anyContains(labels place.Labels, needle string) bool {
	for _, l := range labels {
		if strings.Contains(fold(l), needle) {
			return true
		}
	}
	return false
}

// hasAny reports whether active is empty or labels shares a member with it
func hasAny(labels place.Labels, active map[string]struct{}) bool {
	if len(active) == 0 {
		return true
	}
	for _, l := range labels {
		if _, ok := active[l]; ok {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
