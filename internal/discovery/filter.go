// internal/discovery/filter.go

package discovery

import (
	"github.com/samber/lo"

	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
)

// FilterPlaces returns the places matching the search text, at least one
// active vibe (if any) and at least one active category (if any), in input
// order
func FilterPlaces(places []place.Place, state FilterState) []place.Place {
	search := newSearchMatcher(state.search)
	activeVibes := toSet(state.vibes)
	activeCats := toSet(state.categories)

	return lo.Filter(places, func(p place.Place, _ int) bool {
		return search.match(p) && hasAny(p.Vibes, activeVibes) && hasAny(p.Categories, activeCats)
	})
}

// View is everything a dashboard needs to render one screen
type View struct {
	Filtering bool          `json:"filtering"`
	Sections  []Section     `json:"sections"`
	Results   []place.Place `json:"places"`
	Facets    Facets        `json:"facets"`
}

// BuildView computes the grouped home view when nothing is filtered and the
// filtered list otherwise. Facets are always computed.
func BuildView(places []place.Place, c *Categorizer, state FilterState) View {
	v := View{
		Filtering: state.IsFiltering(),
		Sections:  []Section{},
		Results:   []place.Place{},
		Facets:    ComputeFacets(places, state),
	}
	if v.Filtering {
		v.Results = FilterPlaces(places, state)
	} else {
		v.Sections = c.Sections(places)
	}
	return v
}

// Compute is BuildView with a one-off categorizer
func Compute(places []place.Place, cfg siteconfig.Config, state FilterState) View {
	return BuildView(places, NewCategorizer(cfg), state)
}
