// internal/adapter/storage/config_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"locbook/internal/domain/siteconfig"
)

// ConfigStore keeps the site configuration as a single JSONB document
type ConfigStore struct {
	db *pgxpool.Pool
}

// NewConfigStore creates a new config store
func NewConfigStore(db *pgxpool.Pool) *ConfigStore {
	return &ConfigStore{
		db: db,
	}
}

// Load returns the stored document or siteconfig.ErrNotFound
func (s *ConfigStore) Load(ctx context.Context) (*siteconfig.Config, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, "SELECT doc FROM site_config WHERE id = 1").Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, siteconfig.ErrNotFound
		}
		return nil, fmt.Errorf("error querying site config: %w", err)
	}

	var cfg siteconfig.Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling site config: %w", err)
	}
	return &cfg, nil
}

// Save replaces the stored document
func (s *ConfigStore) Save(ctx context.Context, cfg siteconfig.Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling site config: %w", err)
	}

	query := `
		INSERT INTO site_config (id, doc, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE
		SET doc = $1, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, doc); err != nil {
		return fmt.Errorf("error saving site config: %w", err)
	}
	return nil
}
