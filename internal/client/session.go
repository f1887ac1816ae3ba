// internal/client/session.go

package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"locbook/internal/discovery"
	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
	"locbook/internal/logging"
)

// API is the subset of the places API a session reads
type API interface {
	Places(ctx context.Context, limit int) ([]place.Place, error)
	Config(ctx context.Context) (*siteconfig.Config, error)
	Place(ctx context.Context, id string) (*place.Place, error)
}

// Session holds a read-only working copy of places and configuration.
// Each fetch takes a request token when it starts; its response commits
// only if no newer response has committed first.
type Session struct {
	api      API
	defaults siteconfig.Config
	limit    int
	log      zerolog.Logger

	tokens atomic.Uint64

	mu          sync.RWMutex
	places      []place.Place
	placesToken uint64
	loaded      bool
	config      siteconfig.Config
	configToken uint64
}

// NewSession creates a session that starts out with defaults as its
// configuration and no places
func NewSession(api API, defaults siteconfig.Config, limit int) *Session {
	return &Session{
		api:      api,
		defaults: defaults,
		limit:    limit,
		log:      logging.With("session"),
		places:   []place.Place{},
		config:   defaults,
	}
}

// Load fetches places and configuration concurrently. Failures are logged
// and keep the previous data; the returned error joins them.
func (s *Session) Load(ctx context.Context) error {
	var (
		wg                sync.WaitGroup
		placesErr, cfgErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		placesErr = s.loadPlaces(ctx)
	}()
	go func() {
		defer wg.Done()
		cfgErr = s.loadConfig(ctx)
	}()
	wg.Wait()

	return errors.Join(placesErr, cfgErr)
}

func (s *Session) loadPlaces(ctx context.Context) error {
	token := s.tokens.Add(1)

	places, err := s.api.Places(ctx, s.limit)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to fetch places, keeping previous list")
		return fmt.Errorf("places: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token < s.placesToken {
		s.log.Debug().Uint64("token", token).Msg("discarding stale places response")
		return nil
	}
	s.places = places
	s.placesToken = token
	s.loaded = true
	return nil
}

// loadConfig commits the fetched document merged over the defaults. An
// unusable document commits the defaults; a failed request keeps what is
// there.
func (s *Session) loadConfig(ctx context.Context) error {
	token := s.tokens.Add(1)

	fetched, err := s.api.Config(ctx)

	var next siteconfig.Config
	switch {
	case err == nil:
		next = siteconfig.Merge(s.defaults, *fetched)
	case errors.Is(err, ErrInvalidConfig):
		s.log.Warn().Err(err).Msg("unusable config document, using defaults")
		next = s.defaults
	default:
		s.log.Warn().Err(err).Msg("failed to fetch config, keeping previous config")
		return fmt.Errorf("config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token < s.configToken {
		s.log.Debug().Uint64("token", token).Msg("discarding stale config response")
		return nil
	}
	s.config = next
	s.configToken = token
	return nil
}

// Hydrate returns p with its detail fields, fetching them when p is a
// summary. The hydrated record also replaces the summary in the session.
func (s *Session) Hydrate(ctx context.Context, p place.Place) (place.Place, error) {
	if !p.IsSummary() {
		return p, nil
	}

	full, err := s.api.Place(ctx, p.ID)
	if err != nil {
		return p, fmt.Errorf("failed to hydrate place %s: %w", p.ID, err)
	}

	s.mu.Lock()
	if i := slices.IndexFunc(s.places, func(q place.Place) bool { return q.ID == full.ID }); i >= 0 {
		places := slices.Clone(s.places)
		places[i] = *full
		s.places = places
	}
	s.mu.Unlock()

	return *full, nil
}

// Loaded reports whether a place list has ever been committed
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Places returns the current place list. The slice must not be modified.
func (s *Session) Places() []place.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.places
}

// Config returns the current effective configuration
func (s *Session) Config() siteconfig.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Find returns the place with the given id from the working copy
func (s *Session) Find(id string) (place.Place, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.places, func(p place.Place) bool { return p.ID == id })
	if i < 0 {
		return place.Place{}, false
	}
	return s.places[i], true
}

// View computes the dashboard view for state from the working copy
func (s *Session) View(state discovery.FilterState) discovery.View {
	s.mu.RLock()
	places, cfg := s.places, s.config
	s.mu.RUnlock()

	return discovery.Compute(places, cfg, state)
}
