// internal/discovery/state.go

// Package discovery groups places into homepage sections and narrows them by
// search text, vibes and categories. Everything here is a pure function of
// its inputs; callers recompute whenever places, config or the filter state
// change.
package discovery

import (
	"slices"

	"github.com/samber/lo"
)

// FilterState is the visitor's current search text and facet selections.
// It is immutable: every change returns a new value.
type FilterState struct {
	search     string
	vibes      []string
	categories []string
}

// NewFilterState builds a state, dropping duplicate selections
func NewFilterState(search string, vibes, categories []string) FilterState {
	return FilterState{
		search:     search,
		vibes:      lo.Uniq(vibes),
		categories: lo.Uniq(categories),
	}
}

// Search returns the search text
func (s FilterState) Search() string { return s.search }

// Vibes returns the active vibe selections in selection order
func (s FilterState) Vibes() []string { return slices.Clone(s.vibes) }

// Categories returns the active category selections in selection order
func (s FilterState) Categories() []string { return slices.Clone(s.categories) }

// WithSearch returns a copy with new search text
func (s FilterState) WithSearch(text string) FilterState {
	s.search = text
	return s
}

// ToggleVibe adds the vibe if absent, removes it otherwise
func (s FilterState) ToggleVibe(vibe string) FilterState {
	s.vibes = Toggle(s.vibes, vibe)
	return s
}

// ToggleCategory adds the category if absent, removes it otherwise
func (s FilterState) ToggleCategory(category string) FilterState {
	s.categories = Toggle(s.categories, category)
	return s
}

// Reset returns the empty state shown on the default view
func (s FilterState) Reset() FilterState {
	return FilterState{}
}

// IsFiltering reports whether the search view replaces the grouped home view
func (s FilterState) IsFiltering() bool {
	return s.search != "" || len(s.vibes) > 0 || len(s.categories) > 0
}

// Toggle returns a new set with item removed when present, appended otherwise.
// The input slice is never modified.
func Toggle(set []string, item string) []string {
	if slices.Contains(set, item) {
		return lo.Without(set, item)
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set...)
	return append(out, item)
}
