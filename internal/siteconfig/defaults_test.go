package siteconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbook/internal/discovery"
	"locbook/internal/domain/place"
	"locbook/internal/validation"
)

func writeDefaults(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuiltinIsValid(t *testing.T) {
	cfg := Builtin()

	assert.Nil(t, validation.ValidateStruct(&cfg))
	for _, name := range cfg.HomeCategories {
		assert.Contains(t, cfg.CategoryKeywords, name)
	}
}

func TestLoad_BuiltinOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Builtin().HomeCategories, cfg.HomeCategories)
	assert.True(t, cfg.FeatureEnabled("ENABLE_DISCOVER"))
	assert.False(t, cfg.FeatureEnabled("ENABLE_MAP"))
}

func TestLoad_FileOverridesBuiltin(t *testing.T) {
	path := writeDefaults(t, `
home_categories: [Nhậu, Bar]
category_keywords:
  Nhậu: [beer, bia hơi]
links:
  FEEDBACK: https://example.com/feedback
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Nhậu", "Bar"}, cfg.HomeCategories)
	assert.Equal(t, []string{"beer", "bia hơi"}, cfg.CategoryKeywords["Nhậu"])
	assert.Contains(t, cfg.CategoryKeywords, "Bar", "file maps merge into built-in maps")
	assert.Equal(t, "https://example.com/feedback", cfg.Links["FEEDBACK"])
	assert.Equal(t, Builtin().Links["GITHUB"], cfg.Links["GITHUB"])
}

func TestLoad_FileKeywordsKeepBuiltinRules(t *testing.T) {
	path := writeDefaults(t, "category_keywords:\n  Nhậu: [beer]\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, cfg.CategoryKeywords, len(Builtin().CategoryKeywords))
	assert.Equal(t, []string{"beer"}, cfg.CategoryKeywords["Nhậu"])
	assert.Equal(t, Builtin().Links, cfg.Links)
	assert.Equal(t, Builtin().Features, cfg.Features)

	bar := place.Place{ID: "1", Name: "Speakeasy", Categories: place.Labels{"cocktail bar"}}
	sections := discovery.NewCategorizer(cfg).Sections([]place.Place{bar})
	require.Len(t, sections, 1)
	assert.Equal(t, "Bar", sections[0].Category)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeDefaults(t, "home_categories: [Bar]\n")
	t.Setenv("LOCBOOK_HOME_CATEGORIES", " Casual , Bar ,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Casual", "Bar"}, cfg.HomeCategories)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeDefaults(t, "links:\n  FEEDBACK: not a url\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid defaults")
}
