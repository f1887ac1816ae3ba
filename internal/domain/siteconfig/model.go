// internal/domain/siteconfig/model.go

package siteconfig

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no configuration document has been stored yet
var ErrNotFound = errors.New("site config not found")

// SubjectUpdated is published after the document is replaced
const SubjectUpdated = "config.updated"

// Config is the site configuration document shared by both dashboards.
// JSON keys match the ones the dashboards already read and write.
type Config struct {
	Features          map[string]bool     `json:"FEATURES" koanf:"features"`
	HomeCategories    []string            `json:"HOME_CATEGORIES" koanf:"home_categories" validate:"required,min=1,dive,required"`
	DefaultCategories []string            `json:"DEFAULT_CATEGORIES" koanf:"default_categories" validate:"dive,required"`
	Links             map[string]string   `json:"LINKS" koanf:"links" validate:"dive,omitempty,url"`
	CategoryKeywords  map[string][]string `json:"CATEGORY_KEYWORDS" koanf:"category_keywords"`
}

// FeatureEnabled reports whether a feature flag is switched on
func (c Config) FeatureEnabled(name string) bool {
	return c.Features[name]
}

// Merge returns base with every non-empty top-level field of override applied.
// Like the dashboards, the merge is shallow: a map in override replaces the
// whole map in base.
func Merge(base, override Config) Config {
	out := base
	if override.Features != nil {
		out.Features = override.Features
	}
	if len(override.HomeCategories) > 0 {
		out.HomeCategories = override.HomeCategories
	}
	if override.DefaultCategories != nil {
		out.DefaultCategories = override.DefaultCategories
	}
	if override.Links != nil {
		out.Links = override.Links
	}
	if override.CategoryKeywords != nil {
		out.CategoryKeywords = override.CategoryKeywords
	}
	return out
}

// Store defines the persistence interface for the configuration document
type Store interface {
	// Load returns the stored document or ErrNotFound
	Load(ctx context.Context) (*Config, error)

	// Save replaces the stored document
	Save(ctx context.Context, cfg Config) error
}

// Service defines the interface for reading and replacing the configuration
type Service interface {
	Get(ctx context.Context) (*Config, error)
	Put(ctx context.Context, cfg Config) (*Config, error)
}
