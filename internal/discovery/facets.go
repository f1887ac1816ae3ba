// internal/discovery/facets.go

package discovery

import (
	"sort"

	"github.com/samber/lo"

	"locbook/internal/domain/place"
)

// Facets lists the selectable values of each facet: active selections first
// (sorted), then the remaining available values (sorted)
type Facets struct {
	Vibes      []string `json:"vibes"`
	Categories []string `json:"categories"`
}

// ComputeFacets narrows each facet by the search text and the other facet's
// selections, never by its own. Active selections are always listed so a
// selection only disappears when toggled off.
func ComputeFacets(places []place.Place, state FilterState) Facets {
	search := newSearchMatcher(state.search)
	activeVibes := toSet(state.vibes)
	activeCats := toSet(state.categories)

	var availVibes, availCats []string
	for _, p := range places {
		if !search.match(p) {
			continue
		}
		if hasAny(p.Categories, activeCats) {
			availVibes = append(availVibes, p.Vibes...)
		}
		if hasAny(p.Vibes, activeVibes) {
			availCats = append(availCats, p.Categories...)
		}
	}

	return Facets{
		Vibes:      buildFacetList(availVibes, state.vibes),
		Categories: buildFacetList(availCats, state.categories),
	}
}

func buildFacetList(available, active []string) []string {
	activeSorted := lo.Uniq(active)
	sort.Strings(activeSorted)

	remaining := lo.Without(lo.Uniq(available), active...)
	sort.Strings(remaining)

	return append(activeSorted, remaining...)
}
