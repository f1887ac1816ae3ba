// internal/domain/place/service.go

package place

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a place does not exist
var ErrNotFound = errors.New("place not found")

// Event subjects published on the event bus
const (
	SubjectCreated = "places.created"
	SubjectUpdated = "places.updated"
	SubjectDeleted = "places.deleted"
)

// Event is the payload published when a place changes
type Event struct {
	Type    string `json:"type"`
	PlaceID string `json:"place_id"`
	Name    string `json:"name,omitempty"`
}

// ListQuery defines criteria for listing places
type ListQuery struct {
	Limit  int
	Offset int
	Search string
}

// Patch carries the editable fields of a place, as sent by the admin panel
type Patch struct {
	Name          string      `json:"name" validate:"required,max=200"`
	Address       string      `json:"address" validate:"max=500"`
	Categories    Labels      `json:"categories" validate:"max=50,dive,max=80"`
	Vibes         Labels      `json:"vibes" validate:"max=50,dive,max=80"`
	MealTypes     Labels      `json:"meal_types" validate:"max=20,dive,max=80"`
	Occasions     Labels      `json:"occasions" validate:"max=20,dive,max=80"`
	Mood          Labels      `json:"mood" validate:"max=20,dive,max=80"`
	Rating        *float64    `json:"rating" validate:"omitempty,min=0,max=5"`
	PriceLevel    string      `json:"price_level" validate:"max=20"`
	Status        string      `json:"status" validate:"max=40"`
	GoogleMapsURL string      `json:"google_maps_url" validate:"omitempty,url"`
	Location      *Coordinate `json:"location" validate:"omitempty"`
	Details       *Details    `json:"details"`
}

// Store defines the persistence interface for places
type Store interface {
	// List returns one page of places, newest first, and the total match count
	List(ctx context.Context, q ListQuery) ([]Place, int, error)

	// All returns every place as a summary, newest first
	All(ctx context.Context) ([]Place, error)

	// Get returns a hydrated place by ID
	Get(ctx context.Context, id string) (*Place, error)

	// Save inserts or replaces a place
	Save(ctx context.Context, p Place) error

	// Delete removes a place
	Delete(ctx context.Context, id string) error

	// TopCategories returns the most used category labels
	TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)

	// Count returns the number of places
	Count(ctx context.Context) (int, error)
}

// Service defines the interface for place management
type Service interface {
	List(ctx context.Context, q ListQuery) (*Page, error)
	Get(ctx context.Context, id string) (*Place, error)
	Create(ctx context.Context, patch Patch) (*Place, error)
	Update(ctx context.Context, id string, patch Patch) (*Place, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}
