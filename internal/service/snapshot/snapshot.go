// internal/service/snapshot/snapshot.go

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"locbook/internal/adapter/bus"
	"locbook/internal/discovery"
	"locbook/internal/domain/place"
	"locbook/internal/domain/siteconfig"
	"locbook/internal/logging"
	"locbook/internal/metrics"
)

// ErrNotReady is returned by views before the first successful refresh
var ErrNotReady = errors.New("snapshot not loaded yet")

// PlaceSource lists every place summary
type PlaceSource interface {
	All(ctx context.Context) ([]place.Place, error)
}

// ConfigSource returns the effective site configuration
type ConfigSource interface {
	Get(ctx context.Context) (*siteconfig.Config, error)
}

// Config contains configuration for the snapshot
type Config struct {
	RefreshInterval time.Duration
	PlaceLimit      int
	RefreshTimeout  time.Duration
}

type state struct {
	places      []place.Place
	config      siteconfig.Config
	categorizer *discovery.Categorizer
	token       uint64
	loadedAt    time.Time
}

// Snapshot is the server's working copy of places and configuration. Only
// the most recently started refresh may replace the data; a slower, older
// refresh finishing late is discarded.
type Snapshot struct {
	places   PlaceSource
	configs  ConfigSource
	eventBus *nats.Conn
	config   Config
	log      zerolog.Logger

	tokens  atomic.Uint64
	current *state
	mu      sync.RWMutex

	trigger chan struct{}
	subs    []*nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a snapshot. eventBus may be nil.
func New(places PlaceSource, configs ConfigSource, eventBus *nats.Conn, config Config) *Snapshot {
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Snapshot{
		places:   places,
		configs:  configs,
		eventBus: eventBus,
		config:   config,
		log:      logging.With("snapshot"),
		trigger:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start loads the first snapshot and begins refreshing on the ticker and on
// place or config events. A failed first load is logged, not returned.
func (s *Snapshot) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial snapshot refresh failed")
	}

	if s.eventBus != nil {
		for _, subject := range []string{bus.PlaceEvents, bus.ConfigEvents} {
			sub, err := s.eventBus.Subscribe(subject, func(*nats.Msg) { s.Trigger() })
			if err != nil {
				s.unsubscribe()
				return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
			}
			s.subs = append(s.subs, sub)
		}
	}

	s.wg.Add(1)
	go s.refreshLoop()

	return nil
}

// Trigger requests a refresh without waiting for it. Requests arriving while
// one is pending are coalesced.
func (s *Snapshot) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Snapshot) refreshLoop() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.config.RefreshInterval > 0 {
		ticker := time.NewTicker(s.config.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-tick:
		case <-s.trigger:
		}

		ctx, cancel := context.WithTimeout(s.ctx, s.config.RefreshTimeout)
		if err := s.Refresh(ctx); err != nil && s.ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("snapshot refresh failed, keeping previous data")
		}
		cancel()
	}
}

// Refresh loads places and configuration concurrently and commits them
// unless a newer refresh has already committed. On failure the previous
// snapshot stays in place.
func (s *Snapshot) Refresh(ctx context.Context) error {
	token := s.tokens.Add(1)

	var (
		wg        sync.WaitGroup
		places    []place.Place
		cfg       *siteconfig.Config
		placesErr error
		cfgErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		places, placesErr = s.places.All(ctx)
	}()
	go func() {
		defer wg.Done()
		cfg, cfgErr = s.configs.Get(ctx)
	}()
	wg.Wait()

	if err := errors.Join(placesErr, cfgErr); err != nil {
		metrics.RecordSnapshotRefresh("failed", 0)
		return fmt.Errorf("error refreshing snapshot: %w", err)
	}

	if s.config.PlaceLimit > 0 && len(places) > s.config.PlaceLimit {
		places = places[:s.config.PlaceLimit]
	}

	next := &state{
		places:      places,
		config:      *cfg,
		categorizer: discovery.NewCategorizer(*cfg),
		token:       token,
		loadedAt:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.token > token {
		metrics.RecordSnapshotRefresh("stale", 0)
		s.log.Debug().Uint64("token", token).Uint64("committed", s.current.token).Msg("discarding stale snapshot")
		return nil
	}

	s.current = next
	metrics.RecordSnapshotRefresh("committed", len(places))
	s.log.Debug().Int("places", len(places)).Uint64("token", token).Msg("snapshot committed")
	return nil
}

func (s *Snapshot) load() (*state, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotReady
	}
	return s.current, nil
}

// Places returns the current place summaries
func (s *Snapshot) Places() ([]place.Place, error) {
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return st.places, nil
}

// Config returns the configuration the current snapshot was built with
func (s *Snapshot) Config() (siteconfig.Config, error) {
	st, err := s.load()
	if err != nil {
		return siteconfig.Config{}, err
	}
	return st.config, nil
}

// LoadedAt returns when the current snapshot was committed
func (s *Snapshot) LoadedAt() time.Time {
	st, err := s.load()
	if err != nil {
		return time.Time{}
	}
	return st.loadedAt
}

// Home returns the non-empty homepage sections in configured order
func (s *Snapshot) Home() ([]discovery.Section, error) {
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return st.categorizer.Sections(st.places), nil
}

// Search returns the view for a filter state
func (s *Snapshot) Search(filter discovery.FilterState) (discovery.View, error) {
	st, err := s.load()
	if err != nil {
		return discovery.View{}, err
	}
	return discovery.BuildView(st.places, st.categorizer, filter), nil
}

func (s *Snapshot) unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Debug().Err(err).Str("subject", sub.Subject).Msg("unsubscribe failed")
		}
	}
	s.subs = nil
}

// Stop gracefully stops the refresh loop
func (s *Snapshot) Stop(ctx context.Context) error {
	s.unsubscribe()

	// Signal all goroutines to stop
	s.cancel()

	c := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}
