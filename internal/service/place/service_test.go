package place

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbook/internal/domain/place"
	"locbook/internal/validation"
)

type fakeStore struct {
	places   map[string]place.Place
	lastList place.ListQuery
	err      error
}

func newFakeStore(places ...place.Place) *fakeStore {
	s := &fakeStore{places: map[string]place.Place{}}
	for _, p := range places {
		s.places[p.ID] = p
	}
	return s
}

func (s *fakeStore) List(_ context.Context, q place.ListQuery) ([]place.Place, int, error) {
	s.lastList = q
	if s.err != nil {
		return nil, 0, s.err
	}
	out := []place.Place{}
	for _, p := range s.places {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *fakeStore) All(context.Context) ([]place.Place, error) {
	out := []place.Place{}
	for _, p := range s.places {
		out = append(out, p.Summary())
	}
	return out, s.err
}

func (s *fakeStore) Get(_ context.Context, id string) (*place.Place, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.places[id]
	if !ok {
		return nil, place.ErrNotFound
	}
	return &p, nil
}

func (s *fakeStore) Save(_ context.Context, p place.Place) error {
	if s.err != nil {
		return s.err
	}
	s.places[p.ID] = p
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.places[id]; !ok {
		return place.ErrNotFound
	}
	delete(s.places, id)
	return nil
}

func (s *fakeStore) TopCategories(_ context.Context, limit int) ([]place.CategoryCount, error) {
	return []place.CategoryCount{{Name: "Cafe", Count: 2}}[:min(limit, 1)], nil
}

func (s *fakeStore) Count(context.Context) (int, error) {
	return len(s.places), s.err
}

type fakeCache struct {
	items   map[string]place.Place
	deleted []string
}

func (c *fakeCache) Get(_ context.Context, id string) (*place.Place, bool, error) {
	p, ok := c.items[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (c *fakeCache) Set(_ context.Context, p place.Place) error {
	c.items[p.ID] = p
	return nil
}

func (c *fakeCache) Delete(_ context.Context, id string) error {
	c.deleted = append(c.deleted, id)
	delete(c.items, id)
	return nil
}

type published struct {
	subject string
	event   place.Event
}

type fakeBus struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (b *fakeBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	var e place.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	b.events = append(b.events, published{subject, e})
	return nil
}

func TestService_ListNormalizesQuery(t *testing.T) {
	store := newFakeStore(place.Place{ID: "1", Name: "A", Details: &place.Details{Comment: "x"}})
	svc := NewService(store, nil, nil)

	page, err := svc.List(context.Background(), place.ListQuery{Limit: 5000, Offset: -3, Search: "  pho "})
	require.NoError(t, err)

	assert.Equal(t, place.ListQuery{Limit: MaxLimit, Offset: 0, Search: "pho"}, store.lastList)
	assert.Equal(t, MaxLimit, page.Limit)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].IsSummary(), "listings never carry details")

	_, err = svc.List(context.Background(), place.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, store.lastList.Limit)
}

func TestService_GetReadsThroughCache(t *testing.T) {
	store := newFakeStore(place.Place{ID: "1", Name: "Store copy", Details: &place.Details{}})
	cache := &fakeCache{items: map[string]place.Place{}}
	svc := NewService(store, cache, nil)
	ctx := context.Background()

	p, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Store copy", p.Name)
	assert.Contains(t, cache.items, "1")

	cache.items["1"] = place.Place{ID: "1", Name: "Cached copy"}
	p, err = svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Cached copy", p.Name)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, place.ErrNotFound)
}

func TestService_Create(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := NewService(store, nil, bus)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	p, err := svc.Create(context.Background(), place.Patch{
		Name:       "  Cộng Cà Phê ",
		Categories: place.Labels{"Cafe", " Cafe", "", "Coffee"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Cộng Cà Phê", p.Name)
	assert.Equal(t, place.Labels{"Cafe", "Coffee"}, p.Categories)
	assert.Equal(t, place.Labels{}, p.Vibes)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), p.CreatedAt)
	assert.False(t, p.IsSummary())
	assert.Contains(t, store.places, p.ID)

	require.Len(t, bus.events, 1)
	assert.Equal(t, place.SubjectCreated, bus.events[0].subject)
	assert.Equal(t, p.ID, bus.events[0].event.PlaceID)
}

func TestService_CreateRejectsInvalidPatch(t *testing.T) {
	bad := 7.5
	svc := NewService(newFakeStore(), nil, nil)

	_, err := svc.Create(context.Background(), place.Patch{
		Name:          " ",
		Rating:        &bad,
		GoogleMapsURL: "not a url",
	})

	var verr *validation.RequestValidationError
	require.ErrorAs(t, err, &verr)
	fields := verr.FieldMessages()
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "google_maps_url")
}

func TestService_UpdateKeepsIdentityAndDetails(t *testing.T) {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(place.Place{
		ID:             "1",
		Name:           "Old",
		CreatedAt:      created,
		LocalImagePath: "images/1.jpg",
		Details:        &place.Details{Comment: "ask for the balcony"},
	})
	cache := &fakeCache{items: map[string]place.Place{"1": {ID: "1"}}}
	bus := &fakeBus{}
	svc := NewService(store, cache, bus)

	p, err := svc.Update(context.Background(), "1", place.Patch{Name: "New", Vibes: place.Labels{"Cozy"}})
	require.NoError(t, err)

	assert.Equal(t, "New", p.Name)
	assert.Equal(t, created, p.CreatedAt)
	assert.Equal(t, "images/1.jpg", p.LocalImagePath)
	require.NotNil(t, p.Details)
	assert.Equal(t, "ask for the balcony", p.Details.Comment)
	assert.Equal(t, []string{"1"}, cache.deleted)
	require.Len(t, bus.events, 1)
	assert.Equal(t, place.SubjectUpdated, bus.events[0].subject)

	_, err = svc.Update(context.Background(), "nope", place.Patch{Name: "x"})
	assert.ErrorIs(t, err, place.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	store := newFakeStore(place.Place{ID: "1", Name: "Gone"})
	cache := &fakeCache{items: map[string]place.Place{}}
	bus := &fakeBus{}
	svc := NewService(store, cache, bus)

	require.NoError(t, svc.Delete(context.Background(), "1"))
	assert.NotContains(t, store.places, "1")
	assert.Equal(t, []string{"1"}, cache.deleted)
	require.Len(t, bus.events, 1)
	assert.Equal(t, place.SubjectDeleted, bus.events[0].subject)

	assert.ErrorIs(t, svc.Delete(context.Background(), "1"), place.ErrNotFound)
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, &fakeBus{err: errors.New("nats down")})

	p, err := svc.Create(context.Background(), place.Patch{Name: "Still saved"})
	require.NoError(t, err)
	assert.Contains(t, store.places, p.ID)
}

func TestService_StoreErrorsAreWrapped(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection reset")
	svc := NewService(store, nil, nil)

	_, err := svc.List(context.Background(), place.ListQuery{})
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, place.ErrNotFound)
}

func TestService_Stats(t *testing.T) {
	svc := NewService(newFakeStore(place.Place{ID: "1"}, place.Place{ID: "2"}), nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPlaces)
	assert.Equal(t, []place.CategoryCount{{Name: "Cafe", Count: 2}}, stats.TopCategories)
}
