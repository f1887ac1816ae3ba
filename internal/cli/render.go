// internal/cli/render.go

package cli

import (
	"fmt"
	"io"
	"strings"

	"locbook/internal/discovery"
	"locbook/internal/domain/place"
)

// RenderSections prints each home section with its places
func RenderSections(w io.Writer, sections []discovery.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "No places yet.")
		return
	}

	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s (%d) ==\n", s.Category, len(s.Places))
		for _, p := range s.Places {
			fmt.Fprintln(w, placeLine(p))
		}
	}
}

// RenderView prints the facets followed by either the results or, when
// nothing is filtered, the home sections
func RenderView(w io.Writer, v discovery.View) {
	fmt.Fprintf(w, "Vibes: %s\n", strings.Join(v.Facets.Vibes, ", "))
	fmt.Fprintf(w, "Categories: %s\n\n", strings.Join(v.Facets.Categories, ", "))

	if !v.Filtering {
		RenderSections(w, v.Sections)
		return
	}

	if len(v.Results) == 0 {
		fmt.Fprintln(w, "No matching places.")
		return
	}
	fmt.Fprintf(w, "%d matching places\n", len(v.Results))
	for _, p := range v.Results {
		fmt.Fprintln(w, placeLine(p))
	}
}

// RenderPlace prints every field of a hydrated place
func RenderPlace(w io.Writer, p place.Place) {
	fmt.Fprintln(w, p.Name)
	field(w, "Address", p.Address)
	field(w, "Categories", strings.Join(p.Categories, ", "))
	field(w, "Vibes", strings.Join(p.Vibes, ", "))
	field(w, "Meal types", strings.Join(p.MealTypes, ", "))
	field(w, "Occasions", strings.Join(p.Occasions, ", "))
	field(w, "Mood", strings.Join(p.Mood, ", "))
	if p.Rating != nil {
		field(w, "Rating", fmt.Sprintf("%.1f", *p.Rating))
	}
	field(w, "Price", p.PriceLevel)
	field(w, "Status", p.Status)
	field(w, "Map", p.GoogleMapsURL)
	if p.Details != nil {
		field(w, "Hours", p.Details.OpeningHours)
		field(w, "Popular times", p.Details.PopularTimes)
		field(w, "Comment", p.Details.Comment)
	}
}

func field(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %-14s %s\n", label+":", value)
}

func placeLine(p place.Place) string {
	line := "  - " + p.Name
	if len(p.Vibes) > 0 {
		line += " [" + strings.Join(p.Vibes, ", ") + "]"
	}
	if p.Rating != nil {
		line += fmt.Sprintf(" %.1f", *p.Rating)
	}
	return line
}
