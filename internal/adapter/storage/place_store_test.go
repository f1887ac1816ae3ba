package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbook/internal/domain/place"
)

func TestBuildListQuery_NoSearch(t *testing.T) {
	query, count, args := buildListQuery(place.ListQuery{Limit: 20, Offset: 40})

	assert.Empty(t, args)
	assert.Equal(t, "SELECT COUNT(*) FROM places WHERE 1=1", count)
	assert.Contains(t, query, "ORDER BY created_at DESC, id LIMIT $1 OFFSET $2")
	assert.NotContains(t, query, "opening_hours", "listing returns summaries")
}

func TestBuildListQuery_Search(t *testing.T) {
	query, count, args := buildListQuery(place.ListQuery{Limit: 5, Search: "phở"})

	require.Len(t, args, 1)
	assert.Equal(t, "%phở%", args[0])
	assert.Contains(t, count, "name ILIKE $1")
	assert.Contains(t, query, "array_to_string(meal_types, ' ') ILIKE $1")
	assert.Contains(t, query, "LIMIT $2 OFFSET $3")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
}

func TestPlaceRow_Place(t *testing.T) {
	lat, lng := 21.03, 105.85
	r := placeRow{
		p:          place.Place{ID: "p1", Name: "Cafe Giang"},
		categories: []string{"Cafe"},
		lat:        &lat,
		lng:        &lng,
	}

	p := r.place()

	assert.Equal(t, place.Labels{"Cafe"}, p.Categories)
	assert.Equal(t, place.Labels{}, p.Vibes, "NULL arrays become empty lists")
	require.NotNil(t, p.Location)
	assert.Equal(t, 21.03, p.Location.Lat)
	assert.True(t, p.IsSummary())

	r.lng = nil
	assert.Nil(t, r.place().Location, "half a coordinate is no location")
}

func TestTextArray(t *testing.T) {
	assert.Equal(t, []string{}, textArray(nil))
	assert.Equal(t, []string{"Bar"}, textArray(place.Labels{"Bar"}))
}
