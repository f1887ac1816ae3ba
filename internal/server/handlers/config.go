// internal/server/handlers/config.go

package handlers

import (
	"net/http"

	"locbook/internal/domain/siteconfig"
)

// ConfigHandler serves the site configuration document
type ConfigHandler struct {
	service siteconfig.Service
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(service siteconfig.Service) *ConfigHandler {
	return &ConfigHandler{
		service: service,
	}
}

// GetConfig returns the effective configuration
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Get(r.Context())
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to load config", err)
		return
	}

	respondWithJSON(w, http.StatusOK, cfg)
}

// PutConfig replaces the configuration
func (h *ConfigHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg siteconfig.Config
	if err := decodeJSON(w, r, &cfg); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saved, err := h.service.Put(r.Context(), cfg)
	if err != nil {
		respondWithServiceError(w, r, err, nil, "config")
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}
