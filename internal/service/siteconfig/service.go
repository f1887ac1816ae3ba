// internal/service/siteconfig/service.go

package siteconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"locbook/internal/domain/siteconfig"
	"locbook/internal/logging"
	"locbook/internal/metrics"
	"locbook/internal/validation"
)

// EventBus publishes change events. *nats.Conn satisfies it.
type EventBus interface {
	Publish(subject string, data []byte) error
}

// Service implements siteconfig.Service
type Service struct {
	store    siteconfig.Store
	defaults siteconfig.Config
	eventBus EventBus
}

// NewService creates a new config service. defaults is returned, and merged
// under, whatever the store holds.
func NewService(store siteconfig.Store, defaults siteconfig.Config, eventBus EventBus) *Service {
	return &Service{
		store:    store,
		defaults: defaults,
		eventBus: eventBus,
	}
}

// Get returns the stored document merged over the defaults
func (s *Service) Get(ctx context.Context) (*siteconfig.Config, error) {
	stored, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, siteconfig.ErrNotFound) {
			cfg := s.defaults
			return &cfg, nil
		}
		return nil, fmt.Errorf("error loading site config: %w", err)
	}

	cfg := siteconfig.Merge(s.defaults, *stored)
	return &cfg, nil
}

// Put validates and replaces the stored document
func (s *Service) Put(ctx context.Context, cfg siteconfig.Config) (*siteconfig.Config, error) {
	cfg = normalize(cfg)
	if verr := validation.ValidateStruct(cfg); verr != nil {
		return nil, verr
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("error saving site config: %w", err)
	}

	s.publish(ctx)

	merged := siteconfig.Merge(s.defaults, cfg)
	return &merged, nil
}

// normalize trims category names and drops blank keywords
func normalize(cfg siteconfig.Config) siteconfig.Config {
	trim := func(items []string) []string {
		if items == nil {
			return nil
		}
		return lo.Map(items, func(s string, _ int) string { return strings.TrimSpace(s) })
	}

	cfg.HomeCategories = trim(cfg.HomeCategories)
	cfg.DefaultCategories = trim(cfg.DefaultCategories)

	if cfg.CategoryKeywords != nil {
		keywords := make(map[string][]string, len(cfg.CategoryKeywords))
		for category, list := range cfg.CategoryKeywords {
			keywords[strings.TrimSpace(category)] = lo.Filter(trim(list), func(k string, _ int) bool { return k != "" })
		}
		cfg.CategoryKeywords = keywords
	}
	return cfg
}

func (s *Service) publish(ctx context.Context) {
	if s.eventBus == nil {
		return
	}

	data, _ := json.Marshal(map[string]string{"type": siteconfig.SubjectUpdated})
	if err := s.eventBus.Publish(siteconfig.SubjectUpdated, data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("error publishing config event")
		return
	}
	metrics.RecordEventPublished(siteconfig.SubjectUpdated)
}
