// internal/service/place/service.go

package place

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"locbook/internal/domain/place"
	"locbook/internal/logging"
	"locbook/internal/metrics"
	"locbook/internal/validation"
)

const (
	DefaultLimit = 20
	MaxLimit     = 1000
	topN         = 5
)

// EventBus publishes change events. *nats.Conn satisfies it.
type EventBus interface {
	Publish(subject string, data []byte) error
}

// DetailCache caches hydrated places
type DetailCache interface {
	Get(ctx context.Context, id string) (*place.Place, bool, error)
	Set(ctx context.Context, p place.Place) error
	Delete(ctx context.Context, id string) error
}

// Service implements place.Service
type Service struct {
	store    place.Store
	cache    DetailCache
	eventBus EventBus
	now      func() time.Time
}

// NewService creates a new place service. cache and eventBus may be nil.
func NewService(store place.Store, cache DetailCache, eventBus EventBus) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		eventBus: eventBus,
		now:      time.Now,
	}
}

// List returns one page of place summaries
func (s *Service) List(ctx context.Context, q place.ListQuery) (*place.Page, error) {
	q = normalizeQuery(q)

	places, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error listing places: %w", err)
	}

	return &place.Page{
		Data:   lo.Map(places, func(p place.Place, _ int) place.Place { return p.Summary() }),
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	}, nil
}

func normalizeQuery(q place.ListQuery) place.ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Get returns a hydrated place, reading through the detail cache
func (s *Service) Get(ctx context.Context, id string) (*place.Place, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("place_id", id).Msg("place cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, place.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting place: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, *p); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("place_id", id).Msg("place cache write failed")
		}
	}
	return p, nil
}

// Create adds a new place
func (s *Service) Create(ctx context.Context, patch place.Patch) (*place.Place, error) {
	patch = normalizePatch(patch)
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	p := place.Place{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
	}
	apply(&p, patch)
	if p.Details == nil {
		p.Details = &place.Details{}
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("error saving place: %w", err)
	}

	s.publish(ctx, place.SubjectCreated, p)
	return &p, nil
}

// Update replaces the editable fields of an existing place
func (s *Service) Update(ctx context.Context, id string, patch place.Patch) (*place.Place, error) {
	patch = normalizePatch(patch)
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, place.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting place: %w", err)
	}

	p := *existing
	apply(&p, patch)

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("error saving place: %w", err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, place.SubjectUpdated, p)
	return &p, nil
}

// Delete removes a place
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, place.ErrNotFound) {
			return err
		}
		return fmt.Errorf("error deleting place: %w", err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, place.SubjectDeleted, place.Place{ID: id})
	return nil
}

// Stats returns the catalogue size and the most used categories
func (s *Service) Stats(ctx context.Context) (*place.Stats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting places: %w", err)
	}

	top, err := s.store.TopCategories(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("error getting top categories: %w", err)
	}

	return &place.Stats{TotalPlaces: total, TopCategories: top}, nil
}

func validatePatch(patch place.Patch) error {
	if verr := validation.ValidateStruct(patch); verr != nil {
		return verr
	}
	return nil
}

// normalizePatch trims text and drops blank or repeated labels
func normalizePatch(patch place.Patch) place.Patch {
	patch.Name = strings.TrimSpace(patch.Name)
	patch.Address = strings.TrimSpace(patch.Address)
	patch.GoogleMapsURL = strings.TrimSpace(patch.GoogleMapsURL)
	patch.Categories = cleanLabels(patch.Categories)
	patch.Vibes = cleanLabels(patch.Vibes)
	patch.MealTypes = cleanLabels(patch.MealTypes)
	patch.Occasions = cleanLabels(patch.Occasions)
	patch.Mood = cleanLabels(patch.Mood)
	return patch
}

func cleanLabels(labels place.Labels) place.Labels {
	trimmed := lo.FilterMap(labels, func(l string, _ int) (string, bool) {
		l = strings.TrimSpace(l)
		return l, l != ""
	})
	return place.Labels(lo.Uniq(trimmed))
}

// apply copies the editable fields; Details is kept when the patch has none
func apply(p *place.Place, patch place.Patch) {
	p.Name = patch.Name
	p.Address = patch.Address
	p.Categories = patch.Categories
	p.Vibes = patch.Vibes
	p.MealTypes = patch.MealTypes
	p.Occasions = patch.Occasions
	p.Mood = patch.Mood
	p.Rating = patch.Rating
	p.PriceLevel = patch.PriceLevel
	p.Status = patch.Status
	p.GoogleMapsURL = patch.GoogleMapsURL
	p.Location = patch.Location
	if patch.Details != nil {
		d := *patch.Details
		p.Details = &d
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("place_id", id).Msg("place cache invalidation failed")
	}
}

// publish sends a change event; failures are logged, never returned
func (s *Service) publish(ctx context.Context, subject string, p place.Place) {
	if s.eventBus == nil {
		return
	}

	data, err := json.Marshal(place.Event{Type: subject, PlaceID: p.ID, Name: p.Name})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("error marshaling place event")
		return
	}

	if err := s.eventBus.Publish(subject, data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("subject", subject).Msg("error publishing place event")
		return
	}
	metrics.RecordEventPublished(subject)
}
