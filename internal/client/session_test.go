package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbook/internal/discovery"
	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
)

type placesReply struct {
	places []place.Place
	err    error
}

// fakeAPI answers Places calls in the order the test releases them
type fakeAPI struct {
	mu         sync.Mutex
	placeCalls []chan placesReply
	blockAll   bool

	config    *siteconfig.Config
	configErr error
	details   map[string]place.Place
}

func (f *fakeAPI) Places(ctx context.Context, limit int) ([]place.Place, error) {
	f.mu.Lock()
	if !f.blockAll {
		f.mu.Unlock()
		return []place.Place{{ID: "1", Name: "Rooftop", Categories: place.Labels{"Bar"}}}, nil
	}
	ch := make(chan placesReply, 1)
	f.placeCalls = append(f.placeCalls, ch)
	f.mu.Unlock()

	r := <-ch
	return r.places, r.err
}

func (f *fakeAPI) Config(context.Context) (*siteconfig.Config, error) {
	return f.config, f.configErr
}

func (f *fakeAPI) Place(_ context.Context, id string) (*place.Place, error) {
	p, ok := f.details[id]
	if !ok {
		return nil, place.ErrNotFound
	}
	return &p, nil
}

func (f *fakeAPI) pending(n int) func() bool {
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.placeCalls) == n
	}
}

func (f *fakeAPI) release(i int, r placesReply) {
	f.mu.Lock()
	ch := f.placeCalls[i]
	f.mu.Unlock()
	ch <- r
}

func defaults() siteconfig.Config {
	return siteconfig.Config{
		Features:          map[string]bool{"ENABLE_DISCOVER": true},
		HomeCategories:    []string{"Casual", "Bar"},
		DefaultCategories: []string{"Casual"},
		Links:             map[string]string{"GITHUB": "https://example.com"},
		CategoryKeywords:  map[string][]string{"Bar": {"bar"}, "Casual": {"casual"}},
	}
}

func named(names ...string) []place.Place {
	out := make([]place.Place, len(names))
	for i, n := range names {
		out[i] = place.Place{ID: fmt.Sprint(i), Name: n}
	}
	return out
}

func TestSession_Load(t *testing.T) {
	api := &fakeAPI{config: &siteconfig.Config{
		HomeCategories: []string{"Bar"},
		Links:          map[string]string{"FEEDBACK": "https://example.com/f"},
	}}
	s := NewSession(api, defaults(), 100)
	assert.False(t, s.Loaded())

	require.NoError(t, s.Load(context.Background()))

	assert.True(t, s.Loaded())
	require.Len(t, s.Places(), 1)

	cfg := s.Config()
	assert.Equal(t, []string{"Bar"}, cfg.HomeCategories)
	assert.Equal(t, map[string]string{"FEEDBACK": "https://example.com/f"}, cfg.Links, "maps are replaced, not merged")
	assert.Equal(t, defaults().CategoryKeywords, cfg.CategoryKeywords)
	assert.True(t, cfg.FeatureEnabled("ENABLE_DISCOVER"))

	view := s.View(discovery.FilterState{})
	require.Len(t, view.Sections, 1)
	assert.Equal(t, "Bar", view.Sections[0].Category)
}

func TestSession_ConfigFallback(t *testing.T) {
	t.Run("unusable document uses defaults", func(t *testing.T) {
		api := &fakeAPI{config: &siteconfig.Config{HomeCategories: []string{"Bar"}}}
		s := NewSession(api, defaults(), 10)
		require.NoError(t, s.Load(context.Background()))
		require.Equal(t, []string{"Bar"}, s.Config().HomeCategories)

		api.config, api.configErr = nil, fmt.Errorf("%w: missing HOME_CATEGORIES", ErrInvalidConfig)
		require.NoError(t, s.Load(context.Background()))
		assert.Equal(t, defaults().HomeCategories, s.Config().HomeCategories)
	})

	t.Run("failed request keeps previous config", func(t *testing.T) {
		api := &fakeAPI{config: &siteconfig.Config{HomeCategories: []string{"Bar"}}}
		s := NewSession(api, defaults(), 10)
		require.NoError(t, s.Load(context.Background()))

		api.config, api.configErr = nil, errors.New("connection refused")
		err := s.Load(context.Background())
		assert.ErrorContains(t, err, "connection refused")
		assert.Equal(t, []string{"Bar"}, s.Config().HomeCategories)
	})

	t.Run("never loaded starts from defaults", func(t *testing.T) {
		api := &fakeAPI{configErr: errors.New("down")}
		s := NewSession(api, defaults(), 10)
		assert.Error(t, s.Load(context.Background()))
		assert.Equal(t, defaults(), s.Config())
	})
}

func TestSession_PlacesFailureKeepsPreviousList(t *testing.T) {
	api := &fakeAPI{config: &siteconfig.Config{HomeCategories: []string{"Bar"}}, blockAll: true}
	s := NewSession(api, defaults(), 10)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	require.Eventually(t, api.pending(1), time.Second, time.Millisecond)
	api.release(0, placesReply{places: named("A", "B")})
	require.NoError(t, <-done)

	go func() { done <- s.Load(context.Background()) }()
	require.Eventually(t, api.pending(2), time.Second, time.Millisecond)
	api.release(1, placesReply{err: errors.New("timeout")})
	assert.Error(t, <-done)

	assert.Len(t, s.Places(), 2)
}

func TestSession_StaleResponseIsDiscarded(t *testing.T) {
	api := &fakeAPI{config: &siteconfig.Config{HomeCategories: []string{"Bar"}}, blockAll: true}
	s := NewSession(api, defaults(), 10)

	older := make(chan error, 1)
	go func() { older <- s.Load(context.Background()) }()
	require.Eventually(t, api.pending(1), time.Second, time.Millisecond)

	newer := make(chan error, 1)
	go func() { newer <- s.Load(context.Background()) }()
	require.Eventually(t, api.pending(2), time.Second, time.Millisecond)

	api.release(1, placesReply{places: named("new")})
	require.NoError(t, <-newer)

	api.release(0, placesReply{places: named("old-1", "old-2")})
	require.NoError(t, <-older)

	require.Len(t, s.Places(), 1)
	assert.Equal(t, "new", s.Places()[0].Name)
}

func TestSession_Hydrate(t *testing.T) {
	api := &fakeAPI{
		config:  &siteconfig.Config{HomeCategories: []string{"Bar"}},
		details: map[string]place.Place{"1": {ID: "1", Name: "Rooftop", Details: &place.Details{Comment: "sunset"}}},
	}
	s := NewSession(api, defaults(), 10)
	require.NoError(t, s.Load(context.Background()))

	summary, ok := s.Find("1")
	require.True(t, ok)
	require.True(t, summary.IsSummary())

	full, err := s.Hydrate(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "sunset", full.Details.Comment)

	cached, _ := s.Find("1")
	assert.False(t, cached.IsSummary())

	again, err := s.Hydrate(context.Background(), full)
	require.NoError(t, err)
	assert.Equal(t, full, again)

	_, err = s.Hydrate(context.Background(), place.Place{ID: "missing"})
	assert.ErrorIs(t, err, place.ErrNotFound)

	_, ok = s.Find("missing")
	assert.False(t, ok)
}
