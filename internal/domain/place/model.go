// internal/domain/place/model.go

package place

import (
	"time"

	"github.com/goccy/go-json"
)

// Coordinate is a WGS84 point
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Details holds the narrative fields only returned by the detail endpoint
type Details struct {
	OpeningHours string `json:"opening_hours,omitempty"`
	PopularTimes string `json:"popular_times,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// Place represents a curated venue
type Place struct {
	ID             string      `json:"_id"`
	Name           string      `json:"name"`
	Address        string      `json:"address,omitempty"`
	Categories     Labels      `json:"categories"`
	Vibes          Labels      `json:"vibes"`
	MealTypes      Labels      `json:"meal_types,omitempty"`
	Occasions      Labels      `json:"occasions,omitempty"`
	Mood           Labels      `json:"mood,omitempty"`
	Rating         *float64    `json:"rating,omitempty"`
	PriceLevel     string      `json:"price_level,omitempty"`
	Status         string      `json:"status,omitempty"`
	GoogleMapsURL  string      `json:"google_maps_url,omitempty"`
	LocalImagePath string      `json:"local_image_path,omitempty"`
	Location       *Coordinate `json:"location,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	Details        *Details    `json:"details,omitempty"`
}

// IsSummary reports whether the place still lacks its detail fields
func (p Place) IsSummary() bool {
	return p.Details == nil
}

// Summary returns a copy of the place without detail fields
func (p Place) Summary() Place {
	p.Details = nil
	return p
}

// Labels is an ordered list of free-form tags such as categories or vibes.
// Decoding is lenient: anything that is not a JSON array decodes to an
// empty list and non-string array items are dropped.
type Labels []string

// UnmarshalJSON implements json.Unmarshaler
func (l *Labels) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items, ok := raw.([]interface{})
	if !ok {
		*l = Labels{}
		return nil
	}

	out := make(Labels, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// MarshalJSON always renders a list, never null
func (l Labels) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Contains reports whether the list holds the exact label
func (l Labels) Contains(label string) bool {
	for _, v := range l {
		if v == label {
			return true
		}
	}
	return false
}

// Page is one page of a place listing
type Page struct {
	Data   []Place `json:"data"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// CategoryCount is a category label with the number of places carrying it
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the catalogue
type Stats struct {
	TotalPlaces   int             `json:"total_places"`
	TopCategories []CategoryCount `json:"top_categories"`
}
