// internal/siteconfig/defaults.go

// Package siteconfig loads the default site configuration document used when
// no document has been stored yet, or when a fetched one is unusable.
//
// Layers, lowest priority first:
//
//  1. built-in defaults (Builtin)
//  2. an optional YAML file
//  3. LOCBOOK_HOME_CATEGORIES / LOCBOOK_DEFAULT_CATEGORIES env vars (comma separated)
//
// Maps from the YAML file are merged key by key into the built-in maps.
package siteconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"

	domain "locbook/internal/domain/siteconfig"
	"locbook/internal/validation"
)

// EnvPrefix is the prefix of environment overrides
const EnvPrefix = "LOCBOOK_"

// Builtin returns the configuration the dashboards ship with
func Builtin() domain.Config {
	return domain.Config{
		Features: map[string]bool{
			"ENABLE_BUY_ME_COFFEE":  true,
			"ENABLE_FOOTER":         true,
			"ENABLE_AUTHOR_CREDITS": true,
			"ENABLE_DISCOVER":       true,
			"ENABLE_MAP":            false,
		},
		HomeCategories:    []string{"Casual", "Cafe & Coffee", "Special Occasion", "Bar"},
		DefaultCategories: []string{"Casual"},
		Links: map[string]string{
			"BUY_ME_COFFEE":  "https://buymeacoffee.com/nqhuy",
			"GITHUB":         "https://locbook.firstdraft.sh",
			"AUTHOR_WEBSITE": "https://locbook.firstdraft.sh",
			"LOC_REQUEST":    "https://forms.gle/2w4efcfECzXwpnvo7",
			"FEEDBACK":       "https://forms.gle/2ntCQmgKNrEbN3DX9",
		},
		CategoryKeywords: map[string][]string{
			"Nhậu":             {"nhậu", "beer"},
			"Special Occasion": {"romantic", "fine dining", "fancy", "wine", "anniversary", "celebration", "special occasion"},
			"Bar":              {"bar", "cocktail", "lounge", "speakeasy", "wine"},
			"Cafe & Coffee":    {"cafe", "coffee", "tea"},
			"Casual":           {"casual", "street", "local", "snack", "quick"},
		},
	}
}

var sliceEnvPaths = []string{"home_categories", "default_categories"}

// Load builds the default configuration. path may be empty; a path that does
// not exist is an error so a typo is not silently ignored.
func Load(path string) (domain.Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Builtin(), "koanf"), nil); err != nil {
		return domain.Config{}, fmt.Errorf("failed to load built-in defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return domain.Config{}, fmt.Errorf("defaults file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return domain.Config{}, fmt.Errorf("failed to load defaults file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return domain.Config{}, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("failed to unmarshal defaults: %w", err)
	}
	mergeBuiltinMaps(&cfg)

	if err := validation.ValidateStruct(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("invalid defaults: %w", err)
	}

	return cfg, nil
}

// mergeBuiltinMaps lays the loaded maps over the built-in ones key by key.
// koanf only merges untyped maps, so a file map replaces a typed built-in map
// wholesale.
func mergeBuiltinMaps(cfg *domain.Config) {
	builtin := Builtin()
	cfg.Features = lo.Assign(builtin.Features, cfg.Features)
	cfg.Links = lo.Assign(builtin.Links, cfg.Links)
	cfg.CategoryKeywords = lo.Assign(builtin.CategoryKeywords, cfg.CategoryKeywords)
}

// splitSliceFields turns comma separated env values into lists
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceEnvPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
