package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
)

func fixturePlaces() []place.Place {
	return []place.Place{
		{ID: "1", Name: "Pizza 4P's", Address: "8 Thủ Khoa Huân", Categories: []string{"Restaurant", "Pizza"}, Vibes: []string{"Cozy", "Lively"}},
		{ID: "2", Name: "Pizza Bar", Address: "12 Lý Tự Trọng", Categories: []string{"Bar", "Pizza"}, Vibes: []string{"Loud", "Late Night"}},
		{ID: "3", Name: "The Observatory", Address: "5 Nguyễn Tất Thành", Categories: []string{"Bar"}, Vibes: []string{"Dance", "Late Night"}},
		{ID: "4", Name: "Okkio", Address: "120 Pizza Street", Categories: []string{"Cafe"}, Vibes: []string{"Cozy", "Quiet"}},
		{ID: "5", Name: "Bún Chả Hương Liên", Categories: nil, Vibes: nil},
	}
}

func TestFilterPlaces(t *testing.T) {
	places := fixturePlaces()

	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{
			name:  "search matches name and address case-insensitively",
			state: NewFilterState("PIZZA", nil, nil),
			want:  []string{"1", "2", "4"},
		},
		{
			name:  "search matches labels",
			state: NewFilterState("late", nil, nil),
			want:  []string{"2", "3"},
		},
		{
			name:  "search with decomposed diacritics",
			state: NewFilterState("Bu\u0301n", nil, nil),
			want:  []string{"5"},
		},
		{
			name:  "vibes combine with OR",
			state: NewFilterState("", []string{"Cozy", "Dance"}, nil),
			want:  []string{"1", "3", "4"},
		},
		{
			name:  "facets combine with AND",
			state: NewFilterState("", []string{"Late Night"}, []string{"Pizza"}),
			want:  []string{"2"},
		},
		{
			name:  "all three dimensions",
			state: NewFilterState("pizza", []string{"Cozy"}, []string{"Cafe", "Restaurant"}),
			want:  []string{"1", "4"},
		},
		{
			name:  "selections match labels exactly",
			state: NewFilterState("", []string{"cozy"}, nil),
			want:  []string{},
		},
		{
			name:  "empty state keeps everything",
			state: FilterState{},
			want:  []string{"1", "2", "3", "4", "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPlaces(places, tt.state)
			ids := make([]string, len(got))
			for i, p := range got {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterPlaces_Idempotent(t *testing.T) {
	places := fixturePlaces()
	state := NewFilterState("a", []string{"Late Night", "Cozy"}, nil)

	first := FilterPlaces(places, state)
	second := FilterPlaces(places, state)

	assert.Equal(t, first, second)
}

func TestComputeFacets(t *testing.T) {
	places := fixturePlaces()

	t.Run("no filters lists everything sorted", func(t *testing.T) {
		f := ComputeFacets(places, FilterState{})
		assert.Equal(t, []string{"Cozy", "Dance", "Late Night", "Lively", "Loud", "Quiet"}, f.Vibes)
		assert.Equal(t, []string{"Bar", "Cafe", "Pizza", "Restaurant"}, f.Categories)
	})

	t.Run("search and category narrow the vibe facet", func(t *testing.T) {
		f := ComputeFacets(places, NewFilterState("pizza", nil, []string{"Bar"}))
		assert.Equal(t, []string{"Late Night", "Loud"}, f.Vibes)
		assert.Equal(t, []string{"Bar", "Cafe", "Pizza", "Restaurant"}, f.Categories)
	})

	t.Run("active selections come first and never narrow their own facet", func(t *testing.T) {
		f := ComputeFacets(places, NewFilterState("", []string{"Quiet", "Cozy"}, nil))
		assert.Equal(t, []string{"Cozy", "Quiet", "Dance", "Late Night", "Lively", "Loud"}, f.Vibes)
		assert.Equal(t, []string{"Cafe", "Pizza", "Restaurant"}, f.Categories)
	})

	t.Run("active selections survive a search that excludes them", func(t *testing.T) {
		f := ComputeFacets(places, NewFilterState("observatory", []string{"Cozy"}, []string{"Cafe"}))
		assert.Equal(t, []string{"Cozy"}, f.Vibes)
		assert.Equal(t, []string{"Cafe"}, f.Categories)
	})

	t.Run("unknown selection is still listed", func(t *testing.T) {
		f := ComputeFacets(places, NewFilterState("", []string{"Rooftop"}, nil))
		require.NotEmpty(t, f.Vibes)
		assert.Equal(t, "Rooftop", f.Vibes[0])
		assert.Empty(t, f.Categories)
	})
}

func TestIsFiltering(t *testing.T) {
	tests := []struct {
		name  string
		state FilterState
		want  bool
	}{
		{"empty", FilterState{}, false},
		{"search", NewFilterState("x", nil, nil), true},
		{"whitespace search still filters", NewFilterState(" ", nil, nil), true},
		{"vibe", NewFilterState("", []string{"Cozy"}, nil), true},
		{"category", NewFilterState("", nil, []string{"Bar"}), true},
		{"empty lists", NewFilterState("", []string{}, []string{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.IsFiltering())
		})
	}
}

func TestToggle(t *testing.T) {
	assert.Equal(t, []string{}, Toggle([]string{"Cozy"}, "Cozy"))
	assert.Equal(t, []string{"Cozy"}, Toggle([]string{}, "Cozy"))
	assert.Equal(t, []string{"Cozy"}, Toggle(nil, "Cozy"))

	orig := []string{"Cozy", "Loud"}
	next := Toggle(orig, "Cozy")
	assert.Equal(t, []string{"Loud"}, next)
	assert.Equal(t, []string{"Cozy", "Loud"}, orig, "input must not change")
}

func TestFilterState_TogglesReturnNewValues(t *testing.T) {
	base := NewFilterState("pho", []string{"Cozy"}, nil)

	on := base.ToggleCategory("Cafe").ToggleVibe("Loud")
	off := on.ToggleVibe("Cozy")

	assert.Equal(t, []string{"Cozy"}, base.Vibes())
	assert.Empty(t, base.Categories())
	assert.Equal(t, []string{"Cozy", "Loud"}, on.Vibes())
	assert.Equal(t, []string{"Loud"}, off.Vibes())
	assert.Equal(t, []string{"Cafe"}, off.Categories())
	assert.Equal(t, "pho", off.Search())

	reset := off.Reset()
	assert.False(t, reset.IsFiltering())
	assert.Equal(t, "bun", reset.WithSearch("bun").Search())
}

func TestBuildView(t *testing.T) {
	cfg := siteconfig.Config{
		HomeCategories:   []string{"Bar", "Cafe & Coffee"},
		CategoryKeywords: map[string][]string{"Bar": {"bar"}, "Cafe & Coffee": {"cafe"}},
	}
	places := fixturePlaces()

	home := Compute(places, cfg, FilterState{})
	assert.False(t, home.Filtering)
	assert.Empty(t, home.Results)
	require.Len(t, home.Sections, 2)
	assert.Equal(t, []string{"Pizza Bar", "The Observatory"}, names(home.Sections[0].Places))
	assert.Equal(t, []string{"Okkio"}, names(home.Sections[1].Places))

	search := Compute(places, cfg, NewFilterState("", nil, []string{"Cafe"}))
	assert.True(t, search.Filtering)
	assert.Empty(t, search.Sections)
	assert.Equal(t, []string{"Okkio"}, names(search.Results))
	assert.Equal(t, "Cafe", search.Facets.Categories[0])
}
