// internal/discovery/categorize.go

package discovery

import (
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
)

// Section is one non-empty homepage row
type Section struct {
	Category string        `json:"category"`
	Places   []place.Place `json:"places"`
}

type keywordRule struct {
	category string
	patterns []*regexp.Regexp
}

// Categorizer assigns places to home categories by whole-word keyword match
// against their category and vibe labels. Build once per config and reuse.
type Categorizer struct {
	homeOrder []string
	groups    []string
	rules     []keywordRule
}

// NewCategorizer compiles the keyword rules of cfg
func NewCategorizer(cfg siteconfig.Config) *Categorizer {
	groups := lo.Uniq(append(append([]string{}, cfg.HomeCategories...), cfg.DefaultCategories...))
	known := toSet(groups)

	// map order is random; sort so rule order is stable between builds
	names := make([]string, 0, len(cfg.CategoryKeywords))
	for name := range cfg.CategoryKeywords {
		if _, ok := known[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	rules := make([]keywordRule, 0, len(names))
	for _, name := range names {
		rules = append(rules, keywordRule{
			category: name,
			patterns: compileKeywords(cfg.CategoryKeywords[name]),
		})
	}

	return &Categorizer{
		homeOrder: append([]string{}, cfg.HomeCategories...),
		groups:    groups,
		rules:     rules,
	}
}

// compileKeywords builds one word-boundary matcher per keyword. Keywords are
// quoted so characters like "+" or "(" match literally; blank keywords would
// match at any boundary and are skipped.
func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, k := range keywords {
		if strings.TrimSpace(k) == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(fold(k))+`\b`))
	}
	return patterns
}

// combinedText is the lowercase category labels followed by the vibe labels
func combinedText(p place.Place) string {
	return fold(strings.Join(p.Categories, " ")) + " " + fold(strings.Join(p.Vibes, " "))
}

// Group returns every initialized group, including empty ones. A place may
// appear in several groups; places matching no rule appear in none.
func (c *Categorizer) Group(places []place.Place) map[string][]place.Place {
	hits := make(map[string][]int, len(c.groups))
	for _, g := range c.groups {
		hits[g] = nil
	}

	for i, p := range places {
		text := combinedText(p)
		for _, r := range c.rules {
			if matchesAny(r.patterns, text) {
				hits[r.category] = append(hits[r.category], i)
			}
		}
	}

	out := make(map[string][]place.Place, len(hits))
	for name, idx := range hits {
		idx = lo.Uniq(idx)
		list := make([]place.Place, len(idx))
		for j, i := range idx {
			list[j] = places[i]
		}
		out[name] = list
	}
	return out
}

// Sections returns the non-empty groups in home category order. Default
// categories missing from the home order are never shown.
func (c *Categorizer) Sections(places []place.Place) []Section {
	groups := c.Group(places)
	sections := make([]Section, 0, len(c.homeOrder))
	for _, name := range lo.Uniq(c.homeOrder) {
		if list := groups[name]; len(list) > 0 {
			sections = append(sections, Section{Category: name, Places: list})
		}
	}
	return sections
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Categorize groups places with a one-off categorizer
func Categorize(places []place.Place, cfg siteconfig.Config) map[string][]place.Place {
	return NewCategorizer(cfg).Group(places)
}
